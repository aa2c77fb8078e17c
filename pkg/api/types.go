package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/store"
)

// Storage is the persistence surface the API consumes. *store.Store
// implements it; tests substitute fakes.
type Storage interface {
	CreateGroup(ctx context.Context, group *store.Group) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (*store.Group, error)
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error

	AddMember(ctx context.Context, groupID, userID uuid.UUID, role authz.Role, addedBy *uuid.UUID) error
	UpdateMemberRole(ctx context.Context, groupID, userID uuid.UUID, role authz.Role) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*store.Member, error)

	CreateInvitation(ctx context.Context, groupID uuid.UUID, email string, role authz.Role, invitedBy uuid.UUID, ttl time.Duration) (*store.Invitation, error)
	ListInvitations(ctx context.Context, groupID uuid.UUID) ([]*store.Invitation, error)
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*store.Invitation, error)
	RevokeInvitation(ctx context.Context, invitationID uuid.UUID) error

	SetTeamAssignment(ctx context.Context, assignment *store.TeamAssignment) error
	GetTeamAssignment(ctx context.Context, userID uuid.UUID) (*store.TeamAssignment, bool, error)
}

// Invalidator drops cached access snapshots after membership writes.
// *store.AccessCache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// createGroupRequest is the body for POST /api/v1/groups
type createGroupRequest struct {
	Name string `json:"name"`
}

// addMemberRequest is the body for POST /api/v1/groups/{groupID}/members
type addMemberRequest struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   authz.Role `json:"role"`
}

// updateMemberRequest is the body for PUT /api/v1/groups/{groupID}/members/{userID}
type updateMemberRequest struct {
	Role authz.Role `json:"role"`
}

// createInvitationRequest is the body for POST /api/v1/groups/{groupID}/invitations
type createInvitationRequest struct {
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`
}

// acceptInvitationRequest is the body for POST /api/v1/invitations/accept
type acceptInvitationRequest struct {
	Token string `json:"token"`
}

// setTeamRequest is the body for PUT /api/v1/users/{userID}/team
type setTeamRequest struct {
	Team         authz.Team `json:"team"`
	BoundGroupID *uuid.UUID `json:"bound_group_id,omitempty"`
}

// groupAccessResponse describes the actor's standing in one group.
type groupAccessResponse struct {
	GroupID      string             `json:"group_id"`
	GroupName    string             `json:"group_name,omitempty"`
	Role         *authz.Role        `json:"role"`
	Capabilities []authz.Capability `json:"capabilities"`
}

// meResponse is the actor introspection payload.
type meResponse struct {
	ID          uuid.UUID               `json:"id"`
	Username    string                  `json:"username"`
	Email       string                  `json:"email"`
	GlobalRole  *authz.Role             `json:"global_role,omitempty"`
	Memberships []authz.GroupMembership `json:"memberships"`
	IsOwner     bool                    `json:"is_owner_of_any"`
}

// teamResponse describes one team tier.
type teamResponse struct {
	Name        authz.Team             `json:"name"`
	DisplayName string                 `json:"display_name"`
	Rank        int                    `json:"rank"`
	Scope       authz.TeamScope        `json:"scope"`
	Permissions []authz.TeamPermission `json:"permissions"`
}

// domainCapabilitiesResponse lists the taxonomy for one domain.
type domainCapabilitiesResponse struct {
	Domain       authz.Domain       `json:"domain"`
	Capabilities []authz.Capability `json:"capabilities"`
}
