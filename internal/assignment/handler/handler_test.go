package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/service"
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/lifecycle"
	leadrepo "estate_crm_backend/internal/leads/repository"
	leadtransport "estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgUnexpectedStatus = "expected status %d, got %d: %s"

type harness struct {
	engine    *gin.Engine
	svc       *service.Service
	lifecycle *lifecycle.Service
	repo      *repository.Memory
	caller    domain.CurrentUser
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{repo: repository.NewMemory(), engine: gin.New()}
	leads := leadrepo.NewMemory()
	locker := lock.NewKeyedMutex()
	bus := events.NewInMemoryBus(logger.Discard())
	val := validator.New()
	log := logger.Discard()

	h.svc = service.New(h.repo, leads, nil, locker, bus, val, log)
	h.lifecycle = lifecycle.New(leads, locker, bus, h.svc, val, log)
	h.svc.SetOwnerWriter(h.lifecycle)

	h.caller = h.user(t, "asha", domain.RoleAdmin)

	rg := h.engine.Group("/api/v1")
	rg.Use(func(c *gin.Context) {
		cu, err := h.svc.ResolveCurrentUser(c.Request.Context(), h.caller.ID)
		if err != nil {
			t.Fatalf("resolve caller: %v", err)
		}
		c.Request = c.Request.WithContext(domain.WithCurrentUser(c.Request.Context(), cu))
		c.Next()
	})
	New(h.svc).RegisterRoutes(rg, func(c *gin.Context) { c.Next() })
	return h
}

func (h *harness) user(t *testing.T, name string, role domain.Role) domain.CurrentUser {
	t.Helper()
	u, err := h.repo.UpsertUser(context.Background(), repository.User{Name: name, Email: name + "@estate.test", Role: role, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return domain.CurrentUser{ID: u.ID, Name: u.Name, Role: u.Role}
}

func (h *harness) do(t *testing.T, method, path string, body any, status int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	if rec.Code != status {
		t.Fatalf(msgUnexpectedStatus, status, rec.Code, rec.Body.String())
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestMeReportsRoleAndTeams(t *testing.T) {
	h := newHarness(t)

	me := decode[transport.MeResponse](t, h.do(t, http.MethodGet, "/api/v1/me", nil, http.StatusOK))
	if me.ID != h.caller.ID || me.Role != "Admin" || me.TeamIDs == nil {
		t.Fatalf("unexpected me %+v", me)
	}
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	vikram := h.user(t, "vikram", domain.RoleSales)

	team := decode[transport.TeamResponse](t, h.do(t, http.MethodPost, "/api/v1/teams", map[string]any{"name": "Team A"}, http.StatusCreated))

	missing := uuid.New()
	added := decode[transport.AddMembersResponse](t, h.do(t, http.MethodPost, "/api/v1/teams/"+team.ID.String()+"/members",
		map[string]any{"userIds": []uuid.UUID{vikram.ID, missing, vikram.ID}}, http.StatusOK))
	if added.Added+added.Failed != 3 || added.Failed < 1 {
		t.Fatalf("unexpected bulk result %+v", added)
	}
	if added.Results[1].UserID != missing || added.Results[1].OK || added.Results[1].Code != "not_found" {
		t.Fatalf("expected not_found for unknown user, got %+v", added.Results[1])
	}

	detail := decode[transport.TeamDetailResponse](t, h.do(t, http.MethodGet, "/api/v1/teams/"+team.ID.String(), nil, http.StatusOK))
	if len(detail.Members) != 1 || detail.Members[0].UserID != vikram.ID {
		t.Fatalf("unexpected members %+v", detail.Members)
	}

	h.do(t, http.MethodDelete, "/api/v1/teams/"+team.ID.String()+"/members/"+vikram.ID.String(), nil, http.StatusNoContent)
	h.do(t, http.MethodDelete, "/api/v1/teams/"+team.ID.String(), nil, http.StatusNoContent)
	h.do(t, http.MethodGet, "/api/v1/teams/"+team.ID.String(), nil, http.StatusNotFound)
}

func TestDeleteTeamRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	team := decode[transport.TeamResponse](t, h.do(t, http.MethodPost, "/api/v1/teams", map[string]any{"name": "Team A"}, http.StatusCreated))

	h.caller = h.user(t, "meera", domain.RoleManager)
	h.do(t, http.MethodDelete, "/api/v1/teams/"+team.ID.String(), nil, http.StatusForbidden)
}

func TestAssignLeadOverHTTP(t *testing.T) {
	h := newHarness(t)
	vikram := h.user(t, "vikram", domain.RoleSales)

	lead, err := h.lifecycle.CreateLead(context.Background(), h.caller, leadtransport.CreateLeadRequest{LeadFields: leadtransport.LeadFields{
		Name: "Rajesh Kumar", Email: "rajesh@x.com", Phone: "9876543210", Source: "Website", PropertyType: "3BHK", Budget: "50-75L",
	}})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}

	path := "/api/v1/leads/" + lead.ID.String() + "/assign"
	resp := decode[leadtransport.LeadResponse](t, h.do(t, http.MethodPut, path,
		map[string]any{"assignedTo": map[string]any{"kind": "user", "id": vikram.ID}}, http.StatusOK))
	if resp.AssignedTo == nil || resp.AssignedTo.ID != vikram.ID || resp.AssignedTo.Kind != "user" {
		t.Fatalf("unexpected owner %+v", resp.AssignedTo)
	}

	h.do(t, http.MethodPut, path, map[string]any{"assignedTo": map[string]any{"kind": "team", "id": uuid.New()}}, http.StatusNotFound)
	h.do(t, http.MethodPut, path, map[string]any{"assignedTo": map[string]any{"kind": "group", "id": vikram.ID}}, http.StatusBadRequest)

	cleared := decode[leadtransport.LeadResponse](t, h.do(t, http.MethodPut, path, map[string]any{"assignedTo": nil}, http.StatusOK))
	if cleared.AssignedTo != nil {
		t.Fatalf("expected unassigned lead, got %+v", cleared.AssignedTo)
	}
}
