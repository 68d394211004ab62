package lifecycle

import (
	"context"
	"time"

	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// SetOwner overwrites a lead's owner and logs a reassigned event. A nil owner
// unassigns the lead. The caller is responsible for checking that the owner exists.
// It returns the previous owner alongside the updated lead.
func (s *Service) SetOwner(ctx context.Context, actorID, leadID uuid.UUID, owner *domain.Owner, expectedVersion *int64) (repository.Lead, *domain.Owner, error) {
	var previous *domain.Owner
	updated, err := s.mutate(ctx, leadID, expectedVersion, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		previous = lead.AssignedTo
		lead.AssignedTo = owner
		title := domain.TitleReassigned
		if owner == nil {
			title = domain.TitleUnassigned
		}
		return []repository.TimelineEvent{
			s.event(actorID, domain.EventReassigned, title, now, ReassignMetadata(previous, owner)),
		}, nil
	})
	if err != nil {
		return repository.Lead{}, nil, err
	}

	s.log.LeadEvent("reassigned", leadID.String(), actorID.String(), "to", ownerString(owner))
	return updated, previous, nil
}

func ownerString(o *domain.Owner) string {
	if o == nil {
		return "unassigned"
	}
	return o.String()
}
