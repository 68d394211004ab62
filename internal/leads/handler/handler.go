package handler

import (
	"net/http"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/internal/leads/lifecycle"
	"estate_crm_backend/internal/leads/query"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the lead lifecycle and listing endpoints.
type Handler struct {
	lifecycle *lifecycle.Service
	query     *query.Service
	activity  *ActivityHandler
	log       *logger.Logger
}

const (
	msgInvalidRequest = "invalid request"
	msgLeadForbidden  = "lead belongs to another owner"
)

func New(lifecycleSvc *lifecycle.Service, querySvc *query.Service, activity *ActivityHandler, log *logger.Logger) *Handler {
	return &Handler{lifecycle: lifecycleSvc, query: querySvc, activity: activity, log: log}
}

// RegisterRoutes mounts the lead routes on rg. write wraps every mutating route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, write gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/counts", h.Counts)
	rg.POST("", write, h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", write, h.Update)
	rg.DELETE("/:id", write, h.Delete)
	rg.PUT("/:id/stage", write, h.TransitionStage)
	rg.PUT("/:id/status", write, h.TransitionStatus)
	rg.PUT("/:id/score", write, h.UpdateScore)

	rg.GET("/:id/feed", h.activity.Feed)
	rg.GET("/:id/upcoming", h.activity.Upcoming)
	rg.GET("/:id/summary", h.activity.Summary)
	rg.POST("/:id/notes", write, h.activity.AddNote)
	rg.POST("/:id/calls", write, h.activity.AddCall)
	rg.POST("/:id/tasks", write, h.activity.AddTask)
	rg.POST("/:id/meetings", write, h.activity.AddMeeting)
}

func (h *Handler) Create(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.lifecycle.CreateLead(c.Request.Context(), user, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToLeadResponse(lead))
}

func (h *Handler) GetByID(c *gin.Context) {
	lead, _, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Update(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	updated, err := h.lifecycle.UpdateLeadFields(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.lifecycle.DeleteLead(c.Request.Context(), user, lead.ID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) TransitionStage(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}

	var req transport.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	updated, err := h.lifecycle.TransitionStage(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}

	var req transport.TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	updated, err := h.lifecycle.TransitionStatus(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) UpdateScore(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.lifecycle, h.log)
	if !ok {
		return
	}

	var req transport.UpdateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	updated, err := h.lifecycle.UpdateScore(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) List(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	page, err := h.query.ListLeads(c.Request.Context(), assigndomain.ScopeFor(user), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, query.ToListResponse(page))
}

func (h *Handler) Counts(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	counts, err := h.query.Counts(c.Request.Context(), assigndomain.ScopeFor(user), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, query.ToCountsResponse(counts))
}

// accessibleLead parses :id, loads the lead and checks the caller may see it.
func accessibleLead(c *gin.Context, leads *lifecycle.Service, log *logger.Logger) (repository.Lead, assigndomain.CurrentUser, bool) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return repository.Lead{}, user, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return repository.Lead{}, user, false
	}

	lead, err := leads.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return repository.Lead{}, user, false
	}
	if !assigndomain.CanAccess(user, lead.AssignedTo) {
		log.AccessDenied("lead.read", user.ID.String(), string(user.Role), id.String())
		httpkit.HandleError(c, apperr.Forbidden(msgLeadForbidden))
		return repository.Lead{}, user, false
	}
	return lead, user, true
}
