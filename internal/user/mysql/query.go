package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/role"
	"github.com/frahmantamala/user-management/internal/user"
)

const (
	selectUserSQL = `SELECT id, username, password, real_name, id_card, phone, department, created_at, updated_at
FROM sys_user`

	selectUserRolesSQL = `SELECT r.id, r.role_name, r.description
FROM sys_role r
JOIN user_role_association ura ON ura.role_id = r.id
WHERE ura.user_id = ?
ORDER BY r.id ASC`
)

type userRow struct {
	ID         int64          `db:"id"`
	Username   string         `db:"username"`
	Password   string         `db:"password"`
	RealName   string         `db:"real_name"`
	IDCard     string         `db:"id_card"`
	Phone      string         `db:"phone"`
	Department sql.NullString `db:"department"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type roleRow struct {
	ID          int64   `db:"id"`
	RoleName    string  `db:"role_name"`
	Description *string `db:"description"`
}

// queries holds the read side of the credential store. Statements are written with ? and
// rebound for the connected dialect.
type queries struct {
	db *sqlx.DB
}

func (q *queries) findOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	var row userRow
	query := q.db.Rebind(selectUserSQL + " WHERE " + where)
	if err := q.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	roles, err := q.rolesOf(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	return &user.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.Password,
		RealName:     row.RealName,
		IDCard:       row.IDCard,
		Phone:        row.Phone,
		Department:   row.Department.String,
		Roles:        roles,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (q *queries) rolesOf(ctx context.Context, userID int64) ([]role.Summary, error) {
	var rows []roleRow
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(selectUserRolesSQL), userID); err != nil {
		return nil, fmt.Errorf("select user roles: %w", err)
	}

	roles := make([]role.Summary, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, role.Summary{ID: r.ID, RoleName: r.RoleName, Description: r.Description})
	}
	return roles, nil
}

func (q *queries) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := q.db.GetContext(ctx, &n, q.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}

// missingRoles reports how many of ids have no sys_role row.
func (q *queries) missingRoles(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(1) FROM sys_role WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	n, err := q.count(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return len(ids) - int(n), nil
}
