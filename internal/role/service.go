package role

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/pagination"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
)

type ListFilter struct {
	RoleName string
	Offset   int
	Limit    int
}

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*roleDatamodel.SysRole, int64, error)
	GetByID(ctx context.Context, id int64) (*roleDatamodel.SysRole, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.SysRole, error)
	Create(ctx context.Context, role *roleDatamodel.SysRole) error
	Update(ctx context.Context, role *roleDatamodel.SysRole) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, id int64) (int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

type ListResult struct {
	Roles    []*Role
	Total    int64
	Page     int
	PageSize int
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	p := pagination.Normalize(q.Page, q.PageSize)

	rows, total, err := s.repo.List(ctx, ListFilter{
		RoleName: strings.TrimSpace(q.RoleName),
		Offset:   p.Offset(),
		Limit:    p.Limit(),
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}

	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}

	return &ListResult{Roles: roles, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	dto.RoleName = strings.TrimSpace(dto.RoleName)
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	name := dto.RoleName
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check role name", err)
	}
	if existing != nil {
		return nil, internal.ErrRoleNameTaken
	}

	row := &roleDatamodel.SysRole{RoleName: name, Description: dto.Description}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.logger.InfoContext(ctx, "role created", "role_id", row.ID, "role_name", row.RoleName)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	if dto.RoleName != nil {
		name := strings.TrimSpace(*dto.RoleName)
		dto.RoleName = &name
	}
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.RoleName != nil {
		name := *dto.RoleName
		if name != row.RoleName {
			other, err := s.repo.GetByName(ctx, name)
			if err != nil {
				return nil, internal.NewInternalError("failed to check role name", err)
			}
			if other != nil && other.ID != id {
				return nil, internal.ErrRoleNameTaken
			}
			row.RoleName = name
		}
	}
	if dto.Description != nil {
		row.Description = dto.Description
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.InfoContext(ctx, "role updated", "role_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	linked, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to count role members", err)
	}
	if linked > 0 {
		return internal.ErrRoleInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return nil
}
