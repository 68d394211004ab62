package transport

import (
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"
)

func ownerResponse(o *domain.Owner) *OwnerResponse {
	if o == nil {
		return nil
	}
	return &OwnerResponse{Kind: string(o.Kind), ID: o.ID}
}

// ToOwner converts an owner reference from a request body.
func (o *OwnerRequest) ToOwner() *domain.Owner {
	if o == nil {
		return nil
	}
	return &domain.Owner{Kind: domain.OwnerKind(o.Kind), ID: o.ID}
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Stage:        string(lead.Stage),
		Status:       string(lead.Status),
		Score:        lead.Score,
		PropertyType: lead.PropertyType,
		Budget:       lead.Budget,
		Location:     lead.Location,
		BedroomCount: lead.BedroomCount,
		Source:       lead.Source,
		AssignedTo:   ownerResponse(lead.AssignedTo),
		CreatedBy:    lead.CreatedBy,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
		Version:      lead.Version,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

func ToNoteResponse(n repository.Note) NoteResponse {
	return NoteResponse{ID: n.ID, LeadID: n.LeadID, AuthorID: n.AuthorID, Content: n.Content, CreatedAt: n.CreatedAt}
}

func ToCallResponse(c repository.CallSummary) CallResponse {
	return CallResponse{
		ID:              c.ID,
		LeadID:          c.LeadID,
		AuthorID:        c.AuthorID,
		DurationSeconds: c.DurationSeconds,
		Outcome:         c.Outcome,
		NextAction:      c.NextAction,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
	}
}

func ToTaskResponse(t repository.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		LeadID:      t.LeadID,
		AuthorID:    t.AuthorID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToTaskResponses(tasks []repository.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

func ToMeetingResponse(m repository.Meeting) MeetingResponse {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	actions := m.ActionItems
	if actions == nil {
		actions = []string{}
	}
	return MeetingResponse{
		ID:          m.ID,
		LeadID:      m.LeadID,
		AuthorID:    m.AuthorID,
		MeetingDate: m.MeetingDate,
		Attendees:   attendees,
		Agenda:      m.Agenda,
		Discussion:  m.Discussion,
		ActionItems: actions,
		CreatedAt:   m.CreatedAt,
	}
}

func ToSystemEventResponse(e repository.TimelineEvent) SystemEventResponse {
	return SystemEventResponse{
		ID:        e.ID,
		LeadID:    e.LeadID,
		ActorID:   e.ActorID,
		EventType: string(e.EventType),
		Title:     e.Title,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
