// Package assignment provides the users, teams and lead ownership module.
package assignment

import (
	"estate_crm_backend/internal/assignment/handler"
	"estate_crm_backend/internal/assignment/service"
	apphttp "estate_crm_backend/internal/http"
)

// Module is the assignment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

func NewModule(svc *service.Service) *Module {
	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignment"
}

// RegisterRoutes mounts assignment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected, ctx.WriteRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
