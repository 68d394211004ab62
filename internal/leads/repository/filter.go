package repository

import (
	"sort"
	"strings"
)

// Matches applies every filter in p to lead with AND semantics.
// The in-memory store uses it; the PostgreSQL store expresses the same rules in SQL.
func (p ListParams) Matches(lead Lead) bool {
	if lead.DeletedAt != nil {
		return false
	}
	if !p.Scope.Permits(lead.AssignedTo) {
		return false
	}
	if p.Stage != nil && lead.Stage != *p.Stage {
		return false
	}
	if p.Status != nil && lead.Status != *p.Status {
		return false
	}
	if p.Source != "" && !strings.EqualFold(lead.Source, p.Source) {
		return false
	}
	if p.AssignedTo != nil && (lead.AssignedTo == nil || *lead.AssignedTo != *p.AssignedTo) {
		return false
	}
	if p.MinScore != nil && lead.Score < *p.MinScore {
		return false
	}
	if p.MaxScore != nil && lead.Score > *p.MaxScore {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(p.Search)); search != "" {
		if !strings.Contains(strings.ToLower(lead.Name), search) &&
			!strings.Contains(strings.ToLower(lead.Email), search) &&
			!strings.Contains(strings.ToLower(lead.Phone), search) {
			return false
		}
	}
	return true
}

// sortLeads orders newest first, then by id for a stable order among equal timestamps.
func sortLeads(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		}
		return leads[i].ID.String() < leads[j].ID.String()
	})
}

// paginate applies limit/offset. A non-positive limit returns everything after offset.
func paginate(leads []Lead, limit, offset int) []Lead {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(leads) {
		return []Lead{}
	}
	leads = leads[offset:]
	if limit > 0 && limit < len(leads) {
		leads = leads[:limit]
	}
	return leads
}
