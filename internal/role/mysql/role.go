package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/search"
	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context, filter role.ListFilter) ([]*roleDatamodel.SysRole, int64, error) {
	query := r.db.WithContext(ctx).Model(&roleDatamodel.SysRole{})
	if filter.RoleName != "" {
		query = query.Where(search.ContainsClause("role_name"), search.ContainsPattern(filter.RoleName))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var roles []*roleDatamodel.SysRole
	err := query.Order("id ASC").Offset(filter.Offset).Limit(filter.Limit).Find(&roles).Error
	return roles, total, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.SysRole, error) {
	var row roleDatamodel.SysRole
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.SysRole, error) {
	var row roleDatamodel.SysRole
	err := r.db.WithContext(ctx).Where("role_name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.SysRole) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrRoleNameTaken
	}
	return err
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.SysRole) error {
	err := r.db.WithContext(ctx).Save(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrRoleNameTaken
	}
	return err
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&roleDatamodel.SysRole{}, id).Error
}

func (r *RoleRepository) CountUsers(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.UserRoleAssociation{}).Where("role_id = ?", id).Count(&n).Error
	return n, err
}
