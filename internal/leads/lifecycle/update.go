package lifecycle

import (
	"context"
	"slices"
	"strings"
	"time"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// UpdateLeadFields applies a partial update of the descriptive fields. The
// merged record is validated as a whole. Source may be resent unchanged but
// never altered. An update that changes nothing writes nothing.
func (s *Service) UpdateLeadFields(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.UpdateLeadRequest) (repository.Lead, error) {
	var changed []string
	updated, err := s.mutate(ctx, leadID, req.ExpectedVersion, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		if req.Source != nil && strings.TrimSpace(*req.Source) != lead.Source {
			return nil, apperr.Immutable("source")
		}

		merged := mergeFields(fieldsOf(*lead), req)
		if failures := validator.FieldErrors(s.validator.Struct(merged)); len(failures) > 0 {
			return nil, apperr.ValidationFields(failures)
		}
		merged.Phone = s.phones.NormalizeE164(merged.Phone)

		changed = diffFields(fieldsOf(*lead), merged)
		if len(changed) == 0 {
			return nil, nil
		}
		applyFields(lead, merged)
		return []repository.TimelineEvent{
			s.event(actor.ID, domain.EventLeadUpdated, domain.TitleLeadUpdated, now, map[string]any{
				"fields": changed,
			}),
		}, nil
	})
	if err != nil {
		return repository.Lead{}, err
	}
	if len(changed) == 0 {
		return updated, nil
	}

	s.log.LeadEvent("fields_updated", leadID.String(), actor.ID.String(), "fields", changed)
	s.eventBus.Publish(ctx, events.LeadFieldsUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ActorID:   actor.ID,
		Fields:    changed,
	})
	return updated, nil
}

func fieldsOf(lead repository.Lead) transport.LeadFields {
	return transport.LeadFields{
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Source:       lead.Source,
		PropertyType: lead.PropertyType,
		Budget:       lead.Budget,
		Location:     lead.Location,
		BedroomCount: lead.BedroomCount,
	}
}

func mergeFields(f transport.LeadFields, req transport.UpdateLeadRequest) transport.LeadFields {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&f.Name, req.Name)
	set(&f.Email, req.Email)
	set(&f.Phone, req.Phone)
	set(&f.PropertyType, req.PropertyType)
	set(&f.Budget, req.Budget)
	set(&f.Location, req.Location)
	if req.BedroomCount.Set {
		f.BedroomCount = req.BedroomCount.Value
	}
	return f
}

// diffFields returns the json names of the fields that differ, in a stable order.
func diffFields(before, after transport.LeadFields) []string {
	var out []string
	add := func(name string, differs bool) {
		if differs {
			out = append(out, name)
		}
	}
	add("name", before.Name != after.Name)
	add("email", before.Email != after.Email)
	add("phone", before.Phone != after.Phone)
	add("propertyType", before.PropertyType != after.PropertyType)
	add("budget", before.Budget != after.Budget)
	add("location", before.Location != after.Location)
	add("bedroomCount", !sameCount(before.BedroomCount, after.BedroomCount))
	return slices.Clip(out)
}

func sameCount(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func applyFields(lead *repository.Lead, f transport.LeadFields) {
	lead.Name = f.Name
	lead.Email = f.Email
	lead.Phone = f.Phone
	lead.PropertyType = f.PropertyType
	lead.Budget = f.Budget
	lead.Location = f.Location
	lead.BedroomCount = f.BedroomCount
}
