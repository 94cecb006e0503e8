package role

import "time"

type CreateRoleDTO struct {
	RoleName    string  `json:"role_name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UpdateRoleDTO struct {
	RoleName    *string `json:"role_name" validate:"omitnil,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type ListQuery struct {
	RoleName string
	Page     int
	PageSize int
}

type RoleResponse struct {
	ID          int64     `json:"id"`
	RoleName    string    `json:"role_name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoleDetailResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *RoleResponse `json:"data,omitempty"`
}

type RoleListResponse struct {
	Code     int            `json:"code"`
	Message  string         `json:"message"`
	Data     []RoleResponse `json:"data"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pagesize"`
}

type RoleDeleteResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
