package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
	"carehub/internal/core/tenant"
	"carehub/internal/infrastructure/http/v1/dto"
	"carehub/pkg/logger"
)

// SwitchObserver is notified of every tenant switch outcome.
type SwitchObserver interface {
	ObserveSwitch(result string)
}

// Switch outcomes reported to the observer.
const (
	SwitchSuccess     = "success"
	SwitchNotEntitled = "not_entitled"
	SwitchConflict    = "conflict"
	SwitchUnavailable = "upstream_unavailable"
	SwitchFailed      = "error"
)

// SessionHandler exposes the caller's tenant context.
type SessionHandler struct {
	*BaseHandler
	tenants  tenant.Registry
	registry *security.Registry
	observer SwitchObserver
}

// NewSessionHandler creates a new session handler. observer may be nil.
func NewSessionHandler(base *BaseHandler, tenants tenant.Registry, registry *security.Registry, observer SwitchObserver) *SessionHandler {
	return &SessionHandler{
		BaseHandler: base,
		tenants:     tenants,
		registry:    registry,
		observer:    observer,
	}
}

// Get handles GET /session
func (h *SessionHandler) Get(c *gin.Context) {
	tc, ok := h.TenantContext(c)
	if !ok {
		return
	}
	h.OK(c, h.describe(c, tc))
}

// SwitchTenant handles POST /session/tenant
func (h *SessionHandler) SwitchTenant(c *gin.Context) {
	tc, ok := h.TenantContext(c)
	if !ok {
		return
	}

	var req dto.SwitchTenantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := tc.Switch(c.Request.Context(), req.TenantID)
	switch {
	case err == nil:
		h.observe(SwitchSuccess)
		h.OK(c, h.describe(c, tc))
	case errors.Is(err, tenant.ErrTenantNotEntitled):
		h.observe(SwitchNotEntitled)
		h.Error(c, apperror.NewForbidden().WithCause(err))
	case errors.Is(err, tenant.ErrSwitchConflict):
		h.observe(SwitchConflict)
		h.Error(c, apperror.NewConflict("primary tenant changed concurrently").
			WithDetail("activeTenantId", tc.ActiveTenantID()).
			WithCause(err))
	case apperror.IsUpstreamUnavailable(err):
		h.observe(SwitchUnavailable)
		h.Error(c, err)
	case errors.Is(err, tenant.ErrContextEnded), errors.Is(err, tenant.ErrContextNotReady):
		h.observe(SwitchFailed)
		h.Error(c, apperror.NewUnauthorized("authentication required").WithCause(err))
	default:
		h.observe(SwitchFailed)
		h.Error(c, apperror.NewInternal(err))
	}
}

func (h *SessionHandler) describe(c *gin.Context, tc *tenant.Context) dto.SessionResponse {
	identity := tc.Identity()
	entitled := tc.EntitledTenants()

	names := make(map[string]string, len(entitled))
	if h.tenants != nil && len(entitled) > 0 {
		// Names are for display only; a directory failure degrades to ids.
		list, err := h.tenants.ListByIDs(c.Request.Context(), entitled)
		if err != nil {
			logger.Warn(c.Request.Context(), "tenant directory unavailable", "error", err)
		}
		for _, t := range list {
			names[t.ID] = t.Name
		}
	}

	return dto.NewSessionResponse(identity, tc.ActiveTenantID(), entitled, names, h.registry.PermissionsFor(identity.Role))
}

func (h *SessionHandler) observe(result string) {
	if h.observer != nil {
		h.observer.ObserveSwitch(result)
	}
}
