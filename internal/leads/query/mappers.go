package query

import (
	"estate_crm_backend/internal/leads/transport"
)

// ToListResponse maps a page of leads for the API.
func ToListResponse(p Page) transport.LeadListResponse {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (p.Total + p.PageSize - 1) / p.PageSize
	}
	return transport.LeadListResponse{
		Items:      transport.ToLeadResponses(p.Items),
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}

// ToCountsResponse maps aggregated counts for the API.
func ToCountsResponse(c Counts) transport.CountsResponse {
	resp := transport.CountsResponse{
		Total:    c.Total,
		ByStage:  make(map[string]int, len(c.ByStage)),
		ByStatus: make(map[string]int, len(c.ByStatus)),
	}
	for k, v := range c.ByStage {
		resp.ByStage[string(k)] = v
	}
	for k, v := range c.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	return resp
}
