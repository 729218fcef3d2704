package handlers

import (
	"github.com/gin-gonic/gin"

	"carehub/internal/core/security"
	"carehub/internal/infrastructure/http/v1/dto"
)

// RolesHandler exposes the role table.
type RolesHandler struct {
	*BaseHandler
	registry *security.Registry
}

// NewRolesHandler creates a new roles handler.
func NewRolesHandler(base *BaseHandler, registry *security.Registry) *RolesHandler {
	return &RolesHandler{BaseHandler: base, registry: registry}
}

// List handles GET /roles
func (h *RolesHandler) List(c *gin.Context) {
	table := h.registry.Table()
	out := make([]dto.RoleResponse, 0, len(table))
	for _, row := range table {
		perms := make([]string, len(row.Permissions))
		for i, p := range row.Permissions {
			perms[i] = string(p)
		}
		out = append(out, dto.RoleResponse{Role: string(row.Role), Permissions: perms})
	}
	h.OK(c, out)
}
