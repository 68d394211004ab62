package handler

import (
	"net/http"

	"estate_crm_backend/internal/assignment/service"
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/internal/http/middleware"
	leadtransport "estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves team, user and lead-assignment endpoints.
type Handler struct {
	svc *service.Service
}

const msgInvalidRequest = "invalid request"

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the assignment routes on the protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, write gin.HandlerFunc) {
	rg.GET("/me", h.Me)
	rg.GET("/users", h.ListUsers)
	rg.PUT("/leads/:id/assign", write, h.AssignLead)

	teams := rg.Group("/teams")
	teams.GET("", h.ListTeams)
	teams.POST("", write, h.CreateTeam)
	teams.GET("/:id", h.GetTeam)
	teams.DELETE("/:id", write, h.DeleteTeam)
	teams.POST("/:id/members", write, h.AddMembers)
	teams.DELETE("/:id/members/:userId", write, h.RemoveMember)
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.ToMeResponse(user))
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToUserResponses(users))
}

func (h *Handler) AssignLead(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.AssignLead(c.Request.Context(), user, leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leadtransport.ToLeadResponse(lead))
}

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.svc.ListTeams(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTeamResponses(teams))
}

func (h *Handler) CreateTeam(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}

	var req transport.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	team, err := h.svc.CreateTeam(c.Request.Context(), user, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToTeamResponse(team))
}

func (h *Handler) GetTeam(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetTeam(c.Request.Context(), teamID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToTeamDetailResponse(detail))
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteTeam(c.Request.Context(), user, teamID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddMembers(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	results, err := h.svc.AddTeamMembers(c.Request.Context(), user, teamID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToAddMembersResponse(results))
}

func (h *Handler) RemoveMember(c *gin.Context) {
	user, ok := middleware.MustCurrentUser(c)
	if !ok {
		return
	}
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.RemoveTeamMember(c.Request.Context(), user, teamID, userID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}
