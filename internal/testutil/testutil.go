// Package testutil opens throwaway SQLite stores with the production schema applied.
package testutil

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/user-management/db"
	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
)

// DB is one in-memory database reachable through both gorm and sqlx.
type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

// OpenSQLite creates a private in-memory database and runs the sqlite migrations on it.
// The pool is limited to one connection so every handle sees the same database.
func OpenSQLite(ctx context.Context) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	migrations, err := db.Migrations("sqlite")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	return &DB{Gorm: gdb, SQLX: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

// InsertRole writes a role row directly.
func (d *DB) InsertRole(name, description string) (*roleDatamodel.SysRole, error) {
	row := &roleDatamodel.SysRole{RoleName: name}
	if description != "" {
		row.Description = &description
	}
	if err := d.Gorm.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// InsertUser writes a user row with the given digest and links it to roleIDs.
func (d *DB) InsertUser(u userDatamodel.SysUser, roleIDs ...int64) (*userDatamodel.SysUser, error) {
	if err := d.Gorm.Omit("Roles").Create(&u).Error; err != nil {
		return nil, err
	}
	for _, roleID := range roleIDs {
		link := userDatamodel.UserRoleAssociation{UserID: u.ID, RoleID: roleID}
		if err := d.Gorm.Create(&link).Error; err != nil {
			return nil, err
		}
	}
	return &u, nil
}
