package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/search"
	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/role"
	"github.com/frahmantamala/user-management/internal/user"
)

// UserRepository reads through sqlx and writes through gorm. Both handles share one pool.
type UserRepository struct {
	db *gorm.DB
	q  *queries
}

func NewUserRepository(db *gorm.DB, rdb *sqlx.DB) user.Repository {
	return &UserRepository{db: db, q: &queries{db: rdb}}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.q.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.q.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := r.q.count(ctx, `SELECT COUNT(1) FROM sys_user WHERE username = ?`, username)
	return n > 0, err
}

func (r *UserRepository) IDCardTakenByOther(ctx context.Context, idCard string, excludeID int64) (bool, error) {
	n, err := r.q.count(ctx, `SELECT COUNT(1) FROM sys_user WHERE id_card = ? AND id <> ?`, idCard, excludeID)
	return n > 0, err
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&userDatamodel.SysUser{})
	for column, value := range map[string]string{
		"username":   filter.Username,
		"real_name":  filter.RealName,
		"id_card":    filter.IDCard,
		"phone":      filter.Phone,
		"department": filter.Department,
	} {
		if value != "" {
			query = query.Where(search.ContainsClause(column), search.ContainsPattern(value))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var rows []userDatamodel.SysUser
	err := query.
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("sys_role.id ASC") }).
		Order("sys_user.id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		users = append(users, fromDataModel(&rows[i]))
	}
	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User, roleIDs []int64) error {
	roleIDs = uniqueIDs(roleIDs)
	if err := r.checkRoles(ctx, roleIDs); err != nil {
		return err
	}

	row := &userDatamodel.SysUser{
		Username:   u.Username,
		Password:   u.PasswordHash,
		RealName:   u.RealName,
		IDCard:     u.IDCard,
		Phone:      u.Phone,
		Department: u.Department,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles").Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrUsernameTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return linkRoles(tx, row.ID, roleIDs)
	})
	if err != nil {
		return err
	}

	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

// Update writes the profile columns of u. A nil roleIDs leaves the links alone; an empty
// slice clears them.
func (r *UserRepository) Update(ctx context.Context, u *user.User, roleIDs []int64) error {
	if roleIDs != nil {
		roleIDs = uniqueIDs(roleIDs)
		if err := r.checkRoles(ctx, roleIDs); err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userDatamodel.SysUser{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
			"real_name":  u.RealName,
			"id_card":    u.IDCard,
			"phone":      u.Phone,
			"department": u.Department,
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return internal.ErrIDCardTaken
			}
			return fmt.Errorf("update user: %w", res.Error)
		}

		if roleIDs == nil {
			return nil
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&userDatamodel.UserRoleAssociation{}).Error; err != nil {
			return fmt.Errorf("clear user roles: %w", err)
		}
		return linkRoles(tx, u.ID, roleIDs)
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.SysUser{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password":   passwordHash,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&userDatamodel.UserRoleAssociation{}).Error; err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		res := tx.Delete(&userDatamodel.SysUser{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

// checkRoles runs before any transaction is opened so it never waits on the connection the
// transaction holds.
func (r *UserRepository) checkRoles(ctx context.Context, ids []int64) error {
	missing, err := r.q.missingRoles(ctx, ids)
	if err != nil {
		return err
	}
	if missing > 0 {
		return internal.ErrUnknownRole
	}
	return nil
}

func linkRoles(tx *gorm.DB, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	links := make([]userDatamodel.UserRoleAssociation, 0, len(roleIDs))
	for _, id := range roleIDs {
		links = append(links, userDatamodel.UserRoleAssociation{UserID: userID, RoleID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link user roles: %w", err)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func fromDataModel(row *userDatamodel.SysUser) *user.User {
	roles := make([]role.Summary, 0, len(row.Roles))
	for i := range row.Roles {
		roles = append(roles, summaryOf(&row.Roles[i]))
	}
	return &user.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.Password,
		RealName:     row.RealName,
		IDCard:       row.IDCard,
		Phone:        row.Phone,
		Department:   row.Department,
		Roles:        roles,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func summaryOf(r *roleDatamodel.SysRole) role.Summary {
	return role.FromDataModel(r).ToSummary()
}
