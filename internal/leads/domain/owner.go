package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKind says whether a lead belongs to a user or a team.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerTeam OwnerKind = "team"
)

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	return k == OwnerUser || k == OwnerTeam
}

// Owner is the current assignee of a lead.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func (o Owner) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.ID)
}

// SameOwner reports whether a and b refer to the same owner. Two nils are equal.
func SameOwner(a, b *Owner) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// AccessScope is the set of leads a caller may see.
// All grants every lead. Otherwise only leads owned by UserID or by one of TeamIDs.
type AccessScope struct {
	All     bool
	UserID  uuid.UUID
	TeamIDs []uuid.UUID
}

// Permits reports whether a lead with the given owner falls inside the scope.
// Unassigned leads are visible only to an unrestricted scope.
func (s AccessScope) Permits(owner *Owner) bool {
	if s.All {
		return true
	}
	if owner == nil {
		return false
	}
	switch owner.Kind {
	case OwnerUser:
		return owner.ID == s.UserID
	case OwnerTeam:
		for _, id := range s.TeamIDs {
			if id == owner.ID {
				return true
			}
		}
	}
	return false
}
