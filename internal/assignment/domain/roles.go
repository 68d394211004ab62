// Package domain holds roles, the per-request CurrentUser, and the access rules
// that decide which leads a user may see or change.
package domain

import (
	"context"
	"strings"

	leaddomain "estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Role is a staff role.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleManager        Role = "Manager"
	RoleDirector       Role = "Director"
	RoleSales          Role = "Sales"
	RoleSupport        Role = "Support"
	RoleChannelPartner Role = "ChannelPartner"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleManager, RoleDirector, RoleSales, RoleSupport, RoleChannelPartner}

// ParseRole matches s against the known roles, ignoring case.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Elevated reports whether the role sees every lead regardless of ownership.
func (r Role) Elevated() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDirector:
		return true
	}
	return false
}

// CanManageTeams reports whether the role may create teams and edit membership.
func (r Role) CanManageTeams() bool {
	return r == RoleAdmin || r == RoleManager
}

// CurrentUser is the authenticated caller, resolved once per request and passed
// explicitly to every access decision.
type CurrentUser struct {
	ID      uuid.UUID
	Name    string
	Role    Role
	TeamIDs []uuid.UUID
}

// IsAdmin reports whether the caller holds the Admin role.
func (u CurrentUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ScopeFor returns the set of leads u may see.
func ScopeFor(u CurrentUser) leaddomain.AccessScope {
	if u.Role.Elevated() {
		return leaddomain.AccessScope{All: true}
	}
	return leaddomain.AccessScope{UserID: u.ID, TeamIDs: u.TeamIDs}
}

// CanAccess reports whether u may read or write a lead with the given owner.
// Admin, Manager and Director see every lead. Every other role sees only leads
// owned by itself or by a team it belongs to; unassigned leads stay hidden.
func CanAccess(u CurrentUser, owner *leaddomain.Owner) bool {
	return ScopeFor(u).Permits(owner)
}

type currentUserKey struct{}

// WithCurrentUser returns a context carrying u.
func WithCurrentUser(ctx context.Context, u CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// CurrentUserFrom returns the caller stored by WithCurrentUser.
func CurrentUserFrom(ctx context.Context) (CurrentUser, bool) {
	u, ok := ctx.Value(currentUserKey{}).(CurrentUser)
	return u, ok
}
