package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/activity"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/lifecycle"
	"estate_crm_backend/internal/leads/query"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgUnexpectedStatus = "expected status %d, got %d: %s"
	msgDecodeFailed     = "decode response: %v"
)

type anyOwner struct{}

func (anyOwner) ResolveOwner(context.Context, domain.Owner) error { return nil }

type harness struct {
	engine *gin.Engine
	user   assigndomain.CurrentUser
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemory()
	locker := lock.NewKeyedMutex()
	bus := events.NewInMemoryBus(logger.Discard())
	val := validator.New()
	log := logger.Discard()

	lifecycleSvc := lifecycle.New(repo, locker, bus, anyOwner{}, val, log)
	activitySvc := activity.New(repo, locker, bus, val, log)
	querySvc := query.New(repo, val, log)

	h := &harness{
		engine: gin.New(),
		user:   assigndomain.CurrentUser{ID: uuid.New(), Name: "Asha", Role: assigndomain.RoleAdmin},
	}
	protected := h.engine.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(assigndomain.WithCurrentUser(c.Request.Context(), h.user))
		c.Next()
	})

	activityHandler := NewActivityHandler(activitySvc, lifecycleSvc, log)
	noop := func(c *gin.Context) { c.Next() }
	New(lifecycleSvc, querySvc, activityHandler, log).RegisterRoutes(protected.Group("/leads"), noop)
	activityHandler.RegisterTaskRoutes(protected.Group("/tasks"), noop)
	return h
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf(msgDecodeFailed, err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf(msgUnexpectedStatus, status, rec.Code, rec.Body.String())
	}
}

func validLead() map[string]any {
	return map[string]any{
		"name":         "Rajesh Kumar",
		"email":        "rajesh@x.com",
		"phone":        "9876543210",
		"source":       "Website",
		"propertyType": "3BHK",
		"budget":       "50-75L",
	}
}

func (h *harness) createLead(t *testing.T, body map[string]any) transport.LeadResponse {
	t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/leads", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[transport.LeadResponse](t, rec)
}

func TestCreateLeadReturnsDefaults(t *testing.T) {
	h := newHarness(t)

	lead := h.createLead(t, validLead())
	if lead.Stage != "New" || lead.Status != "Unanswered" || lead.Score != 50 || lead.Version != 1 {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Phone != "+919876543210" {
		t.Fatalf("expected normalized phone, got %q", lead.Phone)
	}
}

func TestCreateLeadValidationListsFields(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/leads", map[string]any{"name": "", "email": "bad", "phone": "", "source": "Website", "propertyType": "", "budget": "x"})
	expectStatus(t, rec, http.StatusBadRequest)

	body := decode[struct {
		Code    string `json:"code"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}](t, rec)
	if body.Code != "validation_error" || len(body.Details) != 4 {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestCreateLeadRejectsMalformedJSON(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestScoreOutOfRangeReportsRangeCode(t *testing.T) {
	h := newHarness(t)
	lead := h.createLead(t, validLead())

	rec := h.do(http.MethodPut, "/api/v1/leads/"+lead.ID.String()+"/score", map[string]any{"score": 150})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[httpkit.ErrorResponse](t, rec); body.Code != "range_error" {
		t.Fatalf("expected range_error, got %q", body.Code)
	}
}

func TestSourceChangeReportsImmutableCode(t *testing.T) {
	h := newHarness(t)
	lead := h.createLead(t, validLead())

	rec := h.do(http.MethodPatch, "/api/v1/leads/"+lead.ID.String(), map[string]any{"source": "Referral"})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[httpkit.ErrorResponse](t, rec); body.Code != "immutable_field" {
		t.Fatalf("expected immutable_field, got %q", body.Code)
	}
}

func TestStaleVersionReportsConflict(t *testing.T) {
	h := newHarness(t)
	lead := h.createLead(t, validLead())

	rec := h.do(http.MethodPut, "/api/v1/leads/"+lead.ID.String()+"/stage", map[string]any{"stage": "Contacted", "expectedVersion": 7})
	expectStatus(t, rec, http.StatusConflict)
}

func TestLeadOutsideScopeIsForbidden(t *testing.T) {
	h := newHarness(t)
	lead := h.createLead(t, validLead())

	h.user = assigndomain.CurrentUser{ID: uuid.New(), Role: assigndomain.RoleSales}
	rec := h.do(http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil)
	expectStatus(t, rec, http.StatusForbidden)

	list := h.do(http.MethodGet, "/api/v1/leads", nil)
	expectStatus(t, list, http.StatusOK)
	if page := decode[transport.LeadListResponse](t, list); page.Total != 0 {
		t.Fatalf("expected empty scope, got %d", page.Total)
	}
}

func TestUnknownLeadIsNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/leads/"+uuid.New().String(), nil)
	expectStatus(t, rec, http.StatusNotFound)

	bad := h.do(http.MethodGet, "/api/v1/leads/not-a-uuid", nil)
	expectStatus(t, bad, http.StatusBadRequest)
}

func TestListAndCountsApplyFilters(t *testing.T) {
	h := newHarness(t)
	hot := h.createLead(t, validLead())
	other := validLead()
	other["email"] = "priya@x.com"
	other["phone"] = "9876500000"
	h.createLead(t, other)

	rec := h.do(http.MethodPut, "/api/v1/leads/"+hot.ID.String()+"/status", map[string]any{"status": "HotLead"})
	expectStatus(t, rec, http.StatusOK)

	list := h.do(http.MethodGet, "/api/v1/leads?status=HotLead&pageSize=5", nil)
	expectStatus(t, list, http.StatusOK)
	page := decode[transport.LeadListResponse](t, list)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != hot.ID || page.PageSize != 5 {
		t.Fatalf("unexpected page %+v", page)
	}

	counts := h.do(http.MethodGet, "/api/v1/leads/counts", nil)
	expectStatus(t, counts, http.StatusOK)
	c := decode[transport.CountsResponse](t, counts)
	if c.Total != 2 || c.ByStatus["HotLead"] != 1 || c.ByStatus["Unanswered"] != 1 || c.ByStage["New"] != 2 {
		t.Fatalf("unexpected counts %+v", c)
	}

	bad := h.do(http.MethodGet, "/api/v1/leads?minScore=80&maxScore=20", nil)
	expectStatus(t, bad, http.StatusBadRequest)
}

func TestActivityRoutesFeedAndToggle(t *testing.T) {
	h := newHarness(t)
	lead := h.createLead(t, validLead())
	base := "/api/v1/leads/" + lead.ID.String()

	expectStatus(t, h.do(http.MethodPost, base+"/notes", map[string]any{"content": "Prefers east facing"}), http.StatusCreated)
	expectStatus(t, h.do(http.MethodPost, base+"/calls", map[string]any{"durationSeconds": 240, "outcome": "Interested"}), http.StatusCreated)

	rec := h.do(http.MethodPost, base+"/tasks", map[string]any{"title": "Site visit", "dueDate": "2099-01-01T10:00:00Z"})
	expectStatus(t, rec, http.StatusCreated)
	task := decode[transport.TaskResponse](t, rec)
	if task.Priority != "medium" || task.Status != "pending" {
		t.Fatalf("unexpected task %+v", task)
	}

	upcoming := h.do(http.MethodGet, base+"/upcoming", nil)
	expectStatus(t, upcoming, http.StatusOK)
	if items := decode[transport.UpcomingResponse](t, upcoming).Items; len(items) != 1 {
		t.Fatalf("expected one upcoming task, got %d", len(items))
	}

	toggled := h.do(http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/toggle", map[string]any{"expectedStatus": "pending"})
	expectStatus(t, toggled, http.StatusOK)
	if got := decode[transport.TaskResponse](t, toggled); got.Status != "completed" {
		t.Fatalf("expected completed, got %q", got.Status)
	}

	stale := h.do(http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/toggle", map[string]any{"expectedStatus": "pending"})
	expectStatus(t, stale, http.StatusConflict)

	feed := h.do(http.MethodGet, base+"/feed", nil)
	expectStatus(t, feed, http.StatusOK)
	items := decode[transport.FeedResponse](t, feed).Items
	if len(items) < 4 {
		t.Fatalf("expected note, call, task and system entries, got %d", len(items))
	}
}

func TestToggleUnknownTaskIsNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/tasks/"+uuid.New().String()+"/toggle", nil)
	expectStatus(t, rec, http.StatusNotFound)
}
