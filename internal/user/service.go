package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/pagination"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
)

type ListFilter struct {
	Username   string
	RealName   string
	IDCard     string
	Phone      string
	Department string
	Offset     int
	Limit      int
}

// Repository is the credential store as seen by the user service. Lookups return
// internal.ErrUserNotFound when no row matches.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	IDCardTakenByOther(ctx context.Context, idCard string, excludeID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	Create(ctx context.Context, u *User, roleIDs []int64) error
	Update(ctx context.Context, u *User, roleIDs []int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// FindByID returns the user with its full role set.
func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("find user by id", err)
	}
	return u, nil
}

// FindByUsername is an exact, case-sensitive lookup.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, wrapStoreError("find user by username", err)
	}
	return u, nil
}

type ListResult struct {
	Users    []*User
	Total    int64
	Page     int
	PageSize int
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	p := pagination.Normalize(q.Page, q.PageSize)

	users, total, err := s.repo.List(ctx, ListFilter{
		Username:   strings.TrimSpace(q.Username),
		RealName:   strings.TrimSpace(q.RealName),
		IDCard:     strings.TrimSpace(q.IDCard),
		Phone:      strings.TrimSpace(q.Phone),
		Department: strings.TrimSpace(q.Department),
		Offset:     p.Offset(),
		Limit:      p.Limit(),
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}

	return &ListResult{Users: users, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	dto.RealName = strings.TrimSpace(dto.RealName)
	dto.Department = strings.TrimSpace(dto.Department)
	if verr := validateCreate(dto); verr != nil {
		return nil, verr
	}

	username := dto.Username
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	}
	if exists {
		return nil, internal.ErrUsernameTaken
	}

	taken, err := s.repo.IDCardTakenByOther(ctx, dto.IDCard, 0)
	if err != nil {
		return nil, internal.NewInternalError("failed to check id card", err)
	}
	if taken {
		return nil, internal.ErrIDCardTaken
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     username,
		PasswordHash: hash,
		RealName:     dto.RealName,
		IDCard:       dto.IDCard,
		Phone:        dto.Phone,
		Department:   dto.Department,
	}
	if err := s.repo.Create(ctx, u, dto.RoleIDs); err != nil {
		return nil, wrapStoreError("create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username)
	return s.FindByID(ctx, u.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	dto.RealName = trimmed(dto.RealName)
	dto.Department = trimmed(dto.Department)
	if verr := validateUpdate(dto); verr != nil {
		return nil, verr
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("find user by id", err)
	}

	if err := s.applyProfile(ctx, u, dto.RealName, dto.IDCard, dto.Phone, dto.Department); err != nil {
		return nil, err
	}

	var roleIDs []int64
	if dto.RoleIDs != nil {
		roleIDs = *dto.RoleIDs
		if roleIDs == nil {
			roleIDs = []int64{}
		}
	}

	if err := s.repo.Update(ctx, u, roleIDs); err != nil {
		return nil, wrapStoreError("update user", err)
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", id)
	return s.FindByID(ctx, id)
}

// Delete removes a user. callerID is the authenticated admin; deleting yourself is refused.
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return wrapStoreError("find user by id", err)
	}
	if callerID == id {
		return internal.ErrCannotDeleteSelf
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError("delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "deleted_by", callerID)
	return nil
}

// UpdateProfile applies a self-service update; roles cannot be changed here.
func (s *Service) UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error) {
	return s.Update(ctx, id, UpdateUserDTO{
		RealName:   dto.RealName,
		IDCard:     dto.IDCard,
		Phone:      dto.Phone,
		Department: dto.Department,
	})
}

func (s *Service) ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wrapStoreError("find user by id", err)
	}

	if !s.hasher.Verify(dto.OldPassword, u.PasswordHash) {
		return internal.ErrWrongOldPassword
	}
	if dto.OldPassword == dto.NewPassword {
		return internal.ErrPasswordUnchanged
	}
	if verr := validation.ValidatePassword("new_password", dto.NewPassword); verr != nil {
		return verr
	}

	hash, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return wrapStoreError("update password", err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", id)
	return nil
}

func (s *Service) applyProfile(ctx context.Context, u *User, realName, idCard, phone, department *string) error {
	if idCard != nil && *idCard != u.IDCard {
		taken, err := s.repo.IDCardTakenByOther(ctx, *idCard, u.ID)
		if err != nil {
			return internal.NewInternalError("failed to check id card", err)
		}
		if taken {
			return internal.ErrIDCardTaken
		}
		u.IDCard = *idCard
	}
	if realName != nil {
		u.RealName = *realName
	}
	if phone != nil {
		u.Phone = *phone
	}
	if department != nil {
		u.Department = *department
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// validateCreate expects string fields that are already trimmed.
func validateCreate(dto CreateUserDTO) *internal.AppError {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}
	if verr := validation.ValidatePassword("password", dto.Password); verr != nil {
		return verr
	}
	if verr := validation.ValidateIDCard(dto.IDCard); verr != nil {
		return verr
	}
	return validation.ValidatePhone(dto.Phone)
}

func validateUpdate(dto UpdateUserDTO) *internal.AppError {
	if verr := validation.Struct(dto); verr != nil {
		return verr
	}
	if dto.IDCard != nil {
		if verr := validation.ValidateIDCard(*dto.IDCard); verr != nil {
			return verr
		}
	}
	if dto.Phone != nil {
		return validation.ValidatePhone(*dto.Phone)
	}
	return nil
}

// wrapStoreError keeps AppErrors (not found, conflicts) visible to the handler and marks
// everything else as an internal store failure.
func wrapStoreError(op string, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return internal.NewInternalError("store failure", fmt.Errorf("%s: %w", op, err))
}
