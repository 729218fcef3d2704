package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/apperror"
	"carehub/internal/core/tenant"
	"carehub/internal/infrastructure/http/v1/dto"
)

// TenantHandler serves tenant directory records.
type TenantHandler struct {
	*BaseHandler
	tenants tenant.Registry
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(base *BaseHandler, tenants tenant.Registry) *TenantHandler {
	return &TenantHandler{BaseHandler: base, tenants: tenants}
}

// Get handles GET /tenants/:tenantID
func (h *TenantHandler) Get(c *gin.Context) {
	tenantID := c.Param("tenantID")

	t, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			h.Error(c, apperror.NewNotFound("tenant", tenantID))
			return
		}
		h.Error(c, apperror.NewUpstreamUnavailable("tenant_directory", err))
		return
	}
	h.OK(c, dto.FromTenant(t))
}
