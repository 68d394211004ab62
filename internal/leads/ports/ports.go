// Package ports defines the interfaces that the leads domain requires from
// external systems. These interfaces form the Anti-Corruption Layer (ACL),
// ensuring the leads domain only knows about the data it needs, formatted
// the way it wants.
package ports

import (
	"context"
	"time"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// OwnerResolver confirms that an owner reference points at an existing user or team.
// Implementations return an apperr NotFound error when it does not.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, owner domain.Owner) error
}

// CurrentUserResolver loads the caller's role and team memberships from the
// authenticated subject id.
type CurrentUserResolver interface {
	ResolveCurrentUser(ctx context.Context, userID uuid.UUID) (assigndomain.CurrentUser, error)
}

// TaskReminder is the data the leads domain hands to the reminder scheduler.
type TaskReminder struct {
	TaskID uuid.UUID
	LeadID uuid.UUID
}

// ReminderScheduler queues a reminder to fire when a task falls due.
type ReminderScheduler interface {
	ScheduleTaskReminder(ctx context.Context, reminder TaskReminder, runAt time.Time) error
}
