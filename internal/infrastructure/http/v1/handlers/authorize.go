package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/security"
	"carehub/internal/infrastructure/http/v1/dto"
)

// Authorizer checks a permission against the tenant context in ctx.
type Authorizer interface {
	Check(ctx context.Context, perm security.Permission, requiredTenantID string) security.Decision
}

// AuthorizeHandler lets clients pre-check an operation.
type AuthorizeHandler struct {
	*BaseHandler
	authorizer Authorizer
}

// NewAuthorizeHandler creates a new authorize handler.
func NewAuthorizeHandler(base *BaseHandler, authorizer Authorizer) *AuthorizeHandler {
	return &AuthorizeHandler{BaseHandler: base, authorizer: authorizer}
}

// Check handles POST /authorize. Unknown permissions are simply not allowed.
func (h *AuthorizeHandler) Check(c *gin.Context) {
	var req dto.AuthorizeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	perm, ok := security.ParsePermission(req.Permission)
	if !ok {
		h.OK(c, dto.AuthorizeResponse{Allowed: false})
		return
	}

	decision := h.authorizer.Check(c.Request.Context(), perm, req.TenantID)
	h.OK(c, dto.AuthorizeResponse{Allowed: decision.Allowed})
}
