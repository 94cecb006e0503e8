package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/pagination"
	"github.com/frahmantamala/user-management/internal/transport"
)

type ServiceAPI interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, callerID, id int64) error
	UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error)
	ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetUser handles GET /api/user/{id}. The body is the bare profile, not an envelope.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToProfile())
}

// GetProfile handles GET /api/auth/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	u, err := h.Service.FindByID(r.Context(), principal.ID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToProfile())
}

// UpdateProfile handles PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), principal.ID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	profile := u.ToProfile()
	h.WriteJSON(w, http.StatusOK, ProfileUpdateResponse{Code: http.StatusOK, Message: "profile updated successfully", Data: &profile})
}

// ChangePassword handles POST /api/auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), principal.ID, dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Code: http.StatusOK, Message: "password changed successfully"})
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	q := r.URL.Query()
	result, err := h.Service.List(r.Context(), ListQuery{
		Username:   q.Get("username"),
		RealName:   q.Get("real_name"),
		IDCard:     q.Get("id_card"),
		Phone:      q.Get("phone"),
		Department: q.Get("department"),
		Page:       p.Page,
		PageSize:   p.PageSize,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	data := make([]AdminUserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		data = append(data, u.ToAdminView())
	}

	h.WriteJSON(w, http.StatusOK, UserListResponse{
		Code:     http.StatusOK,
		Message:  "users retrieved successfully",
		Data:     data,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// GetUserDetail handles GET /api/users/{id}
func (h *Handler) GetUserDetail(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	view := u.ToAdminView()
	h.WriteJSON(w, http.StatusOK, UserDetailResponse{Code: http.StatusOK, Message: "user retrieved successfully", Data: &view})
}

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	view := u.ToAdminView()
	h.WriteJSON(w, http.StatusCreated, UserDetailResponse{Code: http.StatusCreated, Message: "user created successfully", Data: &view})
}

// UpdateUser handles PATCH /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	view := u.ToAdminView()
	h.WriteJSON(w, http.StatusOK, UserDetailResponse{Code: http.StatusOK, Message: "user updated successfully", Data: &view})
}

// DeleteUser handles DELETE /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), principal.ID, id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Code: http.StatusOK, Message: "user deleted successfully"})
}
