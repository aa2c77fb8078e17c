package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/orghub/orghub/pkg/authz"
)

// Sentinel errors returned by the store. Callers match these with errors.Is
// to translate them into HTTP status codes.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrMemberExists       = errors.New("member already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrTokenInvalid       = errors.New("token invalid or expired")
)

// User is an account row. GlobalRole is the tenant-wide role and is nil for
// users whose access comes only from group memberships.
type User struct {
	ID         uuid.UUID   `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	GlobalRole *authz.Role `json:"global_role,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Group is a tenant workspace.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user's membership row in a group, joined with user details
// for listing.
type Member struct {
	GroupID   uuid.UUID  `json:"group_id"`
	GroupName string     `json:"group_name"`
	UserID    uuid.UUID  `json:"user_id"`
	Username  string     `json:"username"`
	Role      authz.Role `json:"role"`
	AddedBy   *uuid.UUID `json:"added_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Invitation is a pending invite to join a group with a given role. The
// token is single use and expires.
type Invitation struct {
	ID         uuid.UUID  `json:"id"`
	GroupID    uuid.UUID  `json:"group_id"`
	Email      string     `json:"email"`
	Role       authz.Role `json:"role"`
	Token      string     `json:"token"`
	InvitedBy  uuid.UUID  `json:"invited_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// TeamAssignment binds a user to a team tier. BoundGroupID is set for teams
// with specific scope and nil for all-scope teams.
type TeamAssignment struct {
	UserID       uuid.UUID  `json:"user_id"`
	Team         authz.Team `json:"team"`
	BoundGroupID *uuid.UUID `json:"bound_group_id,omitempty"`
	AssignedAt   time.Time  `json:"assigned_at"`
}

// APIToken authenticates a bearer token to a user.
type APIToken struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
