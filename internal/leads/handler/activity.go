package handler

import (
	"net/http"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/internal/leads/activity"
	"estate_crm_backend/internal/leads/lifecycle"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityHandler serves the interaction log and feed endpoints.
// It is separate from Handler so tasks can be mounted outside /leads.
type ActivityHandler struct {
	svc   *activity.Service
	leads *lifecycle.Service
	log   *logger.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(svc *activity.Service, leads *lifecycle.Service, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, leads: leads, log: log}
}

// RegisterTaskRoutes mounts the /tasks routes on rg.
func (h *ActivityHandler) RegisterTaskRoutes(rg *gin.RouterGroup, write gin.HandlerFunc) {
	rg.POST("/:taskId/toggle", write, h.ToggleTask)
}

func (h *ActivityHandler) AddNote(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	var req transport.RecordNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	note, err := h.svc.RecordNote(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToNoteResponse(note))
}

func (h *ActivityHandler) AddCall(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	var req transport.RecordCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	call, err := h.svc.RecordCall(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToCallResponse(call))
}

func (h *ActivityHandler) AddTask(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	var req transport.RecordTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	task, err := h.svc.RecordTask(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToTaskResponse(task))
}

func (h *ActivityHandler) AddMeeting(c *gin.Context) {
	lead, user, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	var req transport.RecordMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	meeting, err := h.svc.RecordMeeting(c.Request.Context(), user, lead.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToMeetingResponse(meeting))
}

func (h *ActivityHandler) Feed(c *gin.Context) {
	lead, _, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	items, err := h.svc.GetFeed(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, activity.ToFeedResponse(items))
}

func (h *ActivityHandler) Upcoming(c *gin.Context) {
	lead, _, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	tasks, err := h.svc.GetUpcoming(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.UpcomingResponse{Items: transport.ToTaskResponses(tasks)})
}

func (h *ActivityHandler) Summary(c *gin.Context) {
	lead, _, ok := accessibleLead(c, h.leads, h.log)
	if !ok {
		return
	}

	summary, err := h.svc.GetSummary(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, activity.ToSummaryResponse(summary))
}

func (h *ActivityHandler) ToggleTask(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ToggleTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	ctx := c.Request.Context()
	task, err := h.svc.GetTask(ctx, taskID)
	if httpkit.HandleError(c, err) {
		return
	}
	lead, err := h.leads.GetLead(ctx, task.LeadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !assigndomain.CanAccess(user, lead.AssignedTo) {
		h.log.AccessDenied("task.toggle", user.ID.String(), string(user.Role), taskID.String())
		httpkit.HandleError(c, apperr.Forbidden(msgLeadForbidden))
		return
	}

	toggled, err := h.svc.ToggleTaskStatus(ctx, user, taskID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(toggled))
}
