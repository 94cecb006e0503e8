package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
)

type Role struct {
	ID          int64     `json:"id"`
	RoleName    string    `json:"role_name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is the role shape embedded in user profiles.
type Summary struct {
	ID          int64   `json:"id"`
	RoleName    string  `json:"role_name"`
	Description *string `json:"description"`
}

func (r *Role) ToSummary() Summary {
	return Summary{
		ID:          r.ID,
		RoleName:    r.RoleName,
		Description: r.Description,
	}
}

func (r *Role) ToResponse() RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		RoleName:    r.RoleName,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func FromDataModel(r *roleDatamodel.SysRole) *Role {
	return &Role{
		ID:          r.ID,
		RoleName:    r.RoleName,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Names returns the role names in input order.
func Names(roles []Summary) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.RoleName
	}
	return names
}
