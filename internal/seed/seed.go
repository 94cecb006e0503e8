// Package seed bootstraps the roles and the superadmin account a fresh database needs.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
)

const (
	SuperadminUsername = "superadmin"
	SuperadminPassword = "ls231007"
	SuperadminRole     = "superadmin"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
}

type Options struct {
	// Clear removes every user, role and link before seeding.
	Clear bool
}

type Result struct {
	RolesCreated int
	UsersCreated int
	SuperadminID int64
}

type roleSeed struct {
	Name        string
	Description string
}

var defaultRoles = []roleSeed{
	{SuperadminRole, "Full access to every administrative operation"},
	{"admin", "Manages users and roles"},
	{"user", "Regular account"},
}

// Run is idempotent: existing roles and the existing superadmin are left as they are, but a
// missing superadmin role link is restored.
func Run(ctx context.Context, db *gorm.DB, hasher Hasher, opts Options, logger *slog.Logger) (*Result, error) {
	result := &Result{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			if err := clearAll(tx); err != nil {
				return err
			}
			logger.Info("cleared existing users and roles")
		}

		roleIDs := make(map[string]int64, len(defaultRoles))
		for _, rs := range defaultRoles {
			id, created, err := ensureRole(tx, rs)
			if err != nil {
				return err
			}
			roleIDs[rs.Name] = id
			if created {
				result.RolesCreated++
				logger.Info("seeded role", "role_name", rs.Name, "role_id", id)
			}
		}

		id, created, err := ensureSuperadmin(tx, hasher)
		if err != nil {
			return err
		}
		result.SuperadminID = id
		if created {
			result.UsersCreated++
			logger.Info("seeded user", "username", SuperadminUsername, "user_id", id)
		}

		link := userDatamodel.UserRoleAssociation{UserID: id, RoleID: roleIDs[SuperadminRole]}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return fmt.Errorf("link superadmin role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func clearAll(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&userDatamodel.UserRoleAssociation{},
		&userDatamodel.SysUser{},
		&roleDatamodel.SysRole{},
	} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

func ensureRole(tx *gorm.DB, rs roleSeed) (int64, bool, error) {
	var existing roleDatamodel.SysRole
	err := tx.Where("role_name = ?", rs.Name).First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("lookup role %s: %w", rs.Name, err)
	}

	description := rs.Description
	row := roleDatamodel.SysRole{RoleName: rs.Name, Description: &description}
	if err := tx.Create(&row).Error; err != nil {
		return 0, false, fmt.Errorf("insert role %s: %w", rs.Name, err)
	}
	return row.ID, true, nil
}

func ensureSuperadmin(tx *gorm.DB, hasher Hasher) (int64, bool, error) {
	var existing userDatamodel.SysUser
	err := tx.Where("username = ?", SuperadminUsername).First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("lookup superadmin: %w", err)
	}

	digest, err := hasher.Hash(SuperadminPassword)
	if err != nil {
		return 0, false, fmt.Errorf("hash superadmin password: %w", err)
	}

	row := userDatamodel.SysUser{
		Username:   SuperadminUsername,
		Password:   digest,
		RealName:   "Super Admin",
		IDCard:     "110101199001010011",
		Phone:      "13800000000",
		Department: "IT",
	}
	if err := tx.Omit("Roles").Create(&row).Error; err != nil {
		return 0, false, fmt.Errorf("insert superadmin: %w", err)
	}
	return row.ID, true, nil
}
