package auth

import (
	"github.com/frahmantamala/user-management/internal/user"
)

// LoginDTO is the POST /api/login body.
type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Code    int                  `json:"code"`
	Message string               `json:"message"`
	Data    user.ProfileResponse `json:"data"`
	Token   string               `json:"token"`
}
