// Package query serves filtered lead listings and dashboard counts.
package query

import (
	"context"
	"strings"

	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
)

// Repository is the read access the query service needs.
type Repository interface {
	ListLeads(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
}

// Service answers lead listing queries.
type Service struct {
	repo      Repository
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a query service.
func New(repo Repository, val *validator.Validator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, validator: val, log: log}
}

// Page is one page of a lead listing.
type Page struct {
	Items    []repository.Lead
	Total    int
	Page     int
	PageSize int
}

// Counts tallies leads per stage and per status. Every enum value is present.
type Counts struct {
	Total    int
	ByStage  map[domain.Stage]int
	ByStatus map[domain.Status]int
}

// ListLeads returns the leads inside scope that match every filter, newest first.
func (s *Service) ListLeads(ctx context.Context, scope domain.AccessScope, req transport.ListLeadsRequest) (Page, error) {
	params, err := s.params(scope, req)
	if err != nil {
		return Page{}, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	params.Limit = size
	params.Offset = (page - 1) * size

	items, total, err := s.repo.ListLeads(ctx, params)
	if err != nil {
		s.log.DatabaseError("list_leads", err)
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// Counts aggregates every lead inside scope that matches the filters.
// Pagination fields of req are ignored.
func (s *Service) Counts(ctx context.Context, scope domain.AccessScope, req transport.ListLeadsRequest) (Counts, error) {
	params, err := s.params(scope, req)
	if err != nil {
		return Counts{}, err
	}
	items, _, err := s.repo.ListLeads(ctx, params)
	if err != nil {
		s.log.DatabaseError("count_leads", err)
		return Counts{}, err
	}
	return AggregateCounts(items), nil
}

// AggregateCounts tallies leads by stage and by status.
func AggregateCounts(leads []repository.Lead) Counts {
	c := Counts{
		Total:    len(leads),
		ByStage:  make(map[domain.Stage]int, len(domain.Stages)),
		ByStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, st := range domain.Stages {
		c.ByStage[st] = 0
	}
	for _, st := range domain.Statuses {
		c.ByStatus[st] = 0
	}
	for _, lead := range leads {
		c.ByStage[lead.Stage]++
		c.ByStatus[lead.Status]++
	}
	return c
}

func (s *Service) params(scope domain.AccessScope, req transport.ListLeadsRequest) (repository.ListParams, error) {
	var failures []apperr.FieldError
	if err := s.validator.Struct(req); err != nil {
		failures = append(failures, validator.FieldErrors(err)...)
	}

	params := repository.ListParams{
		Search:   strings.TrimSpace(req.Search),
		Source:   strings.TrimSpace(req.Source),
		MinScore: req.MinScore,
		MaxScore: req.MaxScore,
		Scope:    scope,
	}

	if req.Stage != "" {
		stage, ok := domain.ParseStage(req.Stage)
		if !ok {
			failures = append(failures, apperr.FieldError{Field: "stage", Reason: "not_allowed"})
		}
		params.Stage = &stage
	}
	if req.Status != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			failures = append(failures, apperr.FieldError{Field: "status", Reason: "not_allowed"})
		}
		params.Status = &status
	}

	switch {
	case req.AssignedKind == "" && req.AssignedID == "":
	case req.AssignedKind == "" || req.AssignedID == "":
		failures = append(failures, apperr.FieldError{Field: "assignedTo", Reason: "kind_and_id_required"})
	default:
		if id, err := uuid.Parse(req.AssignedID); err == nil {
			params.AssignedTo = &domain.Owner{Kind: domain.OwnerKind(req.AssignedKind), ID: id}
		}
	}

	if req.MinScore != nil && req.MaxScore != nil && *req.MinScore > *req.MaxScore {
		failures = append(failures, apperr.FieldError{Field: "minScore", Reason: "greater_than_max"})
	}

	if len(failures) > 0 {
		return repository.ListParams{}, apperr.ValidationFields(failures)
	}
	return params, nil
}
