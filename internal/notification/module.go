// Package notification provides event handlers for sending notifications
// (email and WhatsApp) in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// no longer need to know about email providers or templates.
package notification

import (
	"context"
	"errors"
	"fmt"

	assignrepo "estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/email"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Directory resolves owners into the people to notify.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (assignrepo.User, error)
	GetTeam(ctx context.Context, id uuid.UUID) (assignrepo.Team, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]assignrepo.Member, error)
}

// WhatsAppSender sends WhatsApp messages.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// Module handles notification events.
type Module struct {
	sender    email.Sender
	whatsapp  WhatsAppSender
	directory Directory
	log       *logger.Logger
}

// New creates a notification module. whatsapp may be nil.
func New(sender email.Sender, whatsapp WhatsAppSender, directory Directory, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, whatsapp: whatsapp, directory: directory, log: log}
}

// RegisterHandlers subscribes to the events that produce notifications.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.TaskDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.TaskDue:
		return m.handleTaskDue(ctx, e)
	default:
		m.log.Warn("notification module received unknown event", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.NewOwner == nil {
		return nil
	}

	var (
		recipients []assignrepo.User
		via        string
		err        error
	)
	switch e.NewOwner.Kind {
	case "user":
		var u assignrepo.User
		u, err = m.directory.GetUser(ctx, e.NewOwner.ID)
		recipients, via = []assignrepo.User{u}, "you"
	case "team":
		recipients, via, err = m.teamRecipients(ctx, e.NewOwner.ID)
	default:
		return nil
	}
	if errors.Is(err, assignrepo.ErrUserNotFound) || errors.Is(err, assignrepo.ErrTeamNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Lead %s has been assigned to %s.", e.LeadName, via)
	for _, u := range recipients {
		if u.ID == e.AssignedByID {
			continue
		}
		m.deliver(ctx, "lead_assigned", u, message, func(ctx context.Context) error {
			return m.sender.SendLeadAssignedEmail(ctx, u.Email, u.Name, e.LeadName, via)
		})
	}
	return nil
}

func (m *Module) handleTaskDue(ctx context.Context, e events.TaskDue) error {
	recipientID := e.AuthorID
	if e.AssigneeID != nil {
		recipientID = *e.AssigneeID
	}

	u, err := m.directory.GetUser(ctx, recipientID)
	if errors.Is(err, assignrepo.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Reminder: %q for lead %s is due.", e.Title, e.LeadName)
	m.deliver(ctx, "task_due", u, message, func(ctx context.Context) error {
		return m.sender.SendTaskDueEmail(ctx, u.Email, u.Name, e.LeadName, e.Title, e.DueDate)
	})
	return nil
}

// teamRecipients loads the members of a team with their contact details.
func (m *Module) teamRecipients(ctx context.Context, teamID uuid.UUID) ([]assignrepo.User, string, error) {
	team, err := m.directory.GetTeam(ctx, teamID)
	if err != nil {
		return nil, "", err
	}
	members, err := m.directory.ListMembers(ctx, teamID)
	if err != nil {
		return nil, "", err
	}

	users := make([]assignrepo.User, 0, len(members))
	for _, member := range members {
		u, err := m.directory.GetUser(ctx, member.UserID)
		if err != nil {
			m.log.Warn("team member lookup failed", "team_id", teamID, "user_id", member.UserID, "error", err)
			continue
		}
		users = append(users, u)
	}
	return users, "team " + team.Name, nil
}

// deliver sends the email and, when a phone is known, the WhatsApp message.
// Delivery failures are logged and never fail the event.
func (m *Module) deliver(ctx context.Context, kind string, u assignrepo.User, message string, sendEmail func(context.Context) error) {
	if u.Email != "" {
		if err := sendEmail(ctx); err != nil {
			m.log.Error("notification email failed", "kind", kind, "user_id", u.ID, "error", err)
		}
	}
	if m.whatsapp != nil && u.Phone != "" {
		if err := m.whatsapp.SendMessage(ctx, u.Phone, message); err != nil {
			m.log.Error("notification whatsapp failed", "kind", kind, "user_id", u.ID, "error", err)
		}
	}
}

var _ events.Handler = (*Module)(nil)
