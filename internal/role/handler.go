package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/user-management/internal/core/common/pagination"
	"github.com/frahmantamala/user-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error)
	Delete(ctx context.Context, id int64) error
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

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	result, err := h.Service.List(r.Context(), ListQuery{
		RoleName: r.URL.Query().Get("role_name"),
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	data := make([]RoleResponse, 0, len(result.Roles))
	for _, role := range result.Roles {
		data = append(data, role.ToResponse())
	}

	h.WriteJSON(w, http.StatusOK, RoleListResponse{
		Code:     http.StatusOK,
		Message:  "roles retrieved successfully",
		Data:     data,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// GetRole handles GET /roles/{id}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp := role.ToResponse()
	h.WriteJSON(w, http.StatusOK, RoleDetailResponse{Code: http.StatusOK, Message: "role retrieved successfully", Data: &resp})
}

// CreateRole handles POST /roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp := role.ToResponse()
	h.WriteJSON(w, http.StatusCreated, RoleDetailResponse{Code: http.StatusCreated, Message: "role created successfully", Data: &resp})
}

// UpdateRole handles PATCH /roles/{id}
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp := role.ToResponse()
	h.WriteJSON(w, http.StatusOK, RoleDetailResponse{Code: http.StatusOK, Message: "role updated successfully", Data: &resp})
}

// DeleteRole handles DELETE /roles/{id}
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RoleDeleteResponse{Code: http.StatusOK, Message: "role deleted successfully"})
}
