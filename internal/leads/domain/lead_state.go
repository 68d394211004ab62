// Package domain holds the lead enumerations and the pure rules over them.
package domain

import "strings"

// Stage is a lead's position in the sales pipeline.
type Stage string

const (
	StageNew         Stage = "New"
	StageContacted   Stage = "Contacted"
	StageSiteVisit   Stage = "SiteVisit"
	StageNegotiation Stage = "Negotiation"
	StageClosed      Stage = "Closed"
	StageLost        Stage = "Lost"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageNew, StageContacted, StageSiteVisit, StageNegotiation, StageClosed, StageLost}

// Status is a lead's contact/engagement state. It is independent of Stage.
type Status string

const (
	StatusUnanswered Status = "Unanswered"
	StatusFollowUp   Status = "FollowUp"
	StatusScheduled  Status = "Scheduled"
	StatusHotLead    Status = "HotLead"
	StatusWon        Status = "Won"
	StatusLost       Status = "Lost"
)

// Statuses lists every status.
var Statuses = []Status{StatusUnanswered, StatusFollowUp, StatusScheduled, StatusHotLead, StatusWon, StatusLost}

const (
	// DefaultScore is assigned to every new lead.
	DefaultScore = 50
	MinScore     = 0
	MaxScore     = 100
)

// ParseStage matches s against the known stages, ignoring case and surrounding space.
func ParseStage(s string) (Stage, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Stages {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// ParseStatus matches s against the known statuses, ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Valid reports whether s is exactly one of the known stages.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Valid reports whether s is exactly one of the known statuses.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// ScoreInRange reports whether score is within [MinScore, MaxScore].
func ScoreInRange(score int) bool {
	return score >= MinScore && score <= MaxScore
}
