package user

import (
	"time"

	"github.com/frahmantamala/user-management/internal/role"
)

// User is a credential-store user joined with its roles.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	RealName     string
	IDCard       string
	Phone        string
	Department   string
	Roles        []role.Summary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) RoleNames() []string {
	return role.Names(u.Roles)
}

// ToProfile builds the public profile. Password digest and id card are not part of it.
func (u *User) ToProfile() ProfileResponse {
	roles := u.Roles
	if roles == nil {
		roles = []role.Summary{}
	}
	return ProfileResponse{
		ID:         u.ID,
		Username:   u.Username,
		RealName:   u.RealName,
		Phone:      u.Phone,
		Department: u.Department,
		Roles:      roles,
		CreatedAt:  u.CreatedAt,
	}
}

func (u *User) ToAdminView() AdminUserResponse {
	return AdminUserResponse{
		ProfileResponse: u.ToProfile(),
		IDCard:          u.IDCard,
		UpdatedAt:       u.UpdatedAt,
	}
}
