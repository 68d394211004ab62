// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates leads route registration.
package leads

import (
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/leads/activity"
	"estate_crm_backend/internal/leads/handler"
	"estate_crm_backend/internal/leads/lifecycle"
	"estate_crm_backend/internal/leads/query"
	"estate_crm_backend/platform/logger"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	activity *handler.ActivityHandler
}

// NewModule wires the lead handlers around services built by the composition
// root. The services are constructed there because the lifecycle engine and the
// assignment resolver depend on each other.
func NewModule(lifecycleSvc *lifecycle.Service, activitySvc *activity.Service, querySvc *query.Service, log *logger.Logger) *Module {
	activityHandler := handler.NewActivityHandler(activitySvc, lifecycleSvc, log)
	return &Module{
		handler:  handler.New(lifecycleSvc, querySvc, activityHandler, log),
		activity: activityHandler,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	write := ctx.WriteRateLimiter.RateLimit()
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"), write)
	m.activity.RegisterTaskRoutes(ctx.Protected.Group("/tasks"), write)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
