package email

import (
	"context"
	"time"
)

// Sender delivers the staff notification emails.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail, recipientName, leadName, assignedVia string) error
	SendTaskDueEmail(ctx context.Context, toEmail, recipientName, leadName, taskTitle string, dueDate time.Time) error
}

type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(ctx context.Context, toEmail, recipientName, leadName, assignedVia string) error {
	return nil
}

func (NoopSender) SendTaskDueEmail(ctx context.Context, toEmail, recipientName, leadName, taskTitle string, dueDate time.Time) error {
	return nil
}
