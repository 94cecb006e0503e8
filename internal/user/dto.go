package user

import (
	"time"

	"github.com/frahmantamala/user-management/internal/role"
)

type ProfileResponse struct {
	ID         int64          `json:"id"`
	Username   string         `json:"username"`
	RealName   string         `json:"real_name"`
	Phone      string         `json:"phone"`
	Department string         `json:"department"`
	Roles      []role.Summary `json:"roles"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AdminUserResponse struct {
	ProfileResponse
	IDCard    string    `json:"id_card"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserDTO struct {
	Username   string  `json:"username" validate:"required,max=50"`
	Password   string  `json:"password" validate:"required"`
	RealName   string  `json:"real_name" validate:"required,max=50"`
	IDCard     string  `json:"id_card" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Department string  `json:"department" validate:"max=100"`
	RoleIDs    []int64 `json:"role_ids" validate:"omitempty,unique,dive,gt=0"`
}

// UpdateUserDTO is a partial update; nil fields are left untouched and a nil RoleIDs keeps the
// current role links.
type UpdateUserDTO struct {
	RealName   *string  `json:"real_name" validate:"omitnil,min=1,max=50"`
	IDCard     *string  `json:"id_card"`
	Phone      *string  `json:"phone"`
	Department *string  `json:"department" validate:"omitempty,max=100"`
	RoleIDs    *[]int64 `json:"role_ids" validate:"omitempty,unique,dive,gt=0"`
}

type UpdateProfileDTO struct {
	RealName   *string `json:"real_name" validate:"omitnil,min=1,max=50"`
	IDCard     *string `json:"id_card"`
	Phone      *string `json:"phone"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type ListQuery struct {
	Username   string
	RealName   string
	IDCard     string
	Phone      string
	Department string
	Page       int
	PageSize   int
}

type UserDetailResponse struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Data    *AdminUserResponse `json:"data,omitempty"`
}

type UserListResponse struct {
	Code     int                 `json:"code"`
	Message  string              `json:"message"`
	Data     []AdminUserResponse `json:"data"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pagesize"`
}

type ProfileUpdateResponse struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    *ProfileResponse `json:"data,omitempty"`
}

type MessageResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
