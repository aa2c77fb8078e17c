package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/httputil"
	"github.com/orghub/orghub/pkg/middleware"
	"github.com/orghub/orghub/pkg/observability"
	"github.com/orghub/orghub/pkg/store"
)

// Server represents our API server
type Server struct {
	storage       Storage
	registry      *authz.Registry
	router        *mux.Router
	auth          *middleware.AuthMiddleware
	guards        *middleware.GuardMiddleware
	invalidator   Invalidator
	logger        *observability.Logger
	invitationTTL time.Duration
}

// NewServer creates a new API server. invalidator may be nil when caching
// is disabled.
func NewServer(
	storage Storage,
	registry *authz.Registry,
	auth *middleware.AuthMiddleware,
	guards *middleware.GuardMiddleware,
	invalidator Invalidator,
	logger *observability.Logger,
	invitationTTL time.Duration,
) *Server {
	s := &Server{
		storage:       storage,
		registry:      registry,
		router:        mux.NewRouter(),
		auth:          auth,
		guards:        guards,
		invalidator:   invalidator,
		logger:        logger,
		invitationTTL: invitationTTL,
	}
	s.setupRoutes()
	return s
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.auth.Handler)

	// Reference data
	v1.HandleFunc("/capabilities", s.listCapabilities).Methods("GET")
	v1.HandleFunc("/teams", s.listTeams).Methods("GET")

	// Actor introspection
	v1.HandleFunc("/me", s.getMe).Methods("GET")
	v1.HandleFunc("/me/groups", s.listMyGroups).Methods("GET")

	// Groups
	v1.HandleFunc("/groups", s.createGroup).Methods("POST")
	v1.Handle("/groups/{groupID}",
		s.guard(s.guards.RequireMinRole(authz.RoleGuest), s.getGroup)).Methods("GET")
	v1.Handle("/groups/{groupID}",
		s.guard(s.guards.RequireCapability(authz.CapAdminDeleteGroup), s.deleteGroup)).Methods("DELETE")
	v1.Handle("/groups/{groupID}/me",
		s.guard(s.guards.RequireMinRole(authz.RoleGuest), s.getMyGroupAccess)).Methods("GET")

	// Members
	v1.Handle("/groups/{groupID}/members",
		s.guard(s.guards.RequireCapability(authz.CapUsersView), s.listMembers)).Methods("GET")
	v1.Handle("/groups/{groupID}/members",
		s.guard(s.guards.RequireCapability(authz.CapGroupsManageMembers), s.addMember)).Methods("POST")
	v1.Handle("/groups/{groupID}/members/{userID}",
		s.guard(s.guards.RequireCapability(authz.CapGroupsManageMembers), s.updateMemberRole)).Methods("PUT")
	v1.Handle("/groups/{groupID}/members/{userID}",
		s.guard(s.guards.RequireCapability(authz.CapUsersRemove), s.removeMember)).Methods("DELETE")

	// Invitations
	v1.Handle("/groups/{groupID}/invitations",
		s.guard(s.guards.RequireCapability(authz.CapUsersInvite), s.createInvitation)).Methods("POST")
	v1.Handle("/groups/{groupID}/invitations",
		s.guard(s.guards.RequireCapability(authz.CapUsersInvite), s.listInvitations)).Methods("GET")
	v1.Handle("/groups/{groupID}/invitations/{invitationID}",
		s.guard(s.guards.RequireCapability(authz.CapUsersInvite), s.revokeInvitation)).Methods("DELETE")
	v1.HandleFunc("/invitations/accept", s.acceptInvitation).Methods("POST")

	// Team assignments (tenant-level, owners only)
	v1.Handle("/users/{userID}/team",
		s.guard(s.guards.RequireOwnerOfAny(), s.setTeamAssignment)).Methods("PUT")
	v1.Handle("/users/{userID}/team",
		s.guard(s.guards.RequireOwnerOfAny(), s.getTeamAssignment)).Methods("GET")
}

func (s *Server) guard(wrap func(http.Handler) http.Handler, handler http.HandlerFunc) http.Handler {
	return wrap(handler)
}

func (s *Server) invalidate(r *http.Request, userID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(r.Context(), userID)
	}
}

// listCapabilities returns the capability taxonomy grouped by domain.
func (s *Server) listCapabilities(w http.ResponseWriter, r *http.Request) {
	byDomain := authz.CapabilitiesByDomain()
	response := make([]domainCapabilitiesResponse, 0, len(byDomain))
	for _, domain := range authz.AllDomains() {
		response = append(response, domainCapabilitiesResponse{
			Domain:       domain,
			Capabilities: byDomain[domain],
		})
	}
	httputil.WriteSuccess(w, response)
}

// listTeams returns the team hierarchy, highest rank first.
func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams := s.registry.Teams()
	response := make([]teamResponse, 0, len(teams))
	for _, def := range teams {
		response = append(response, teamResponse{
			Name:        def.Name,
			DisplayName: def.DisplayName,
			Rank:        def.Rank,
			Scope:       def.Scope,
			Permissions: def.Permissions,
		})
	}
	httputil.WriteSuccess(w, response)
}

// getMe returns the actor's full access snapshot.
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	memberships := actor.GroupMemberships
	if memberships == nil {
		memberships = []authz.GroupMembership{}
	}
	httputil.WriteSuccess(w, meResponse{
		ID:          actor.ID,
		Username:    actor.Username,
		Email:       actor.Email,
		GlobalRole:  actor.GlobalRole,
		Memberships: memberships,
		IsOwner:     authz.IsOwnerOfAny(actor),
	})
}

// listMyGroups returns the groups where the actor holds at least min_role
// (default guest), preserving membership order.
func (s *Server) listMyGroups(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	minRole := authz.RoleGuest
	if raw := r.URL.Query().Get("min_role"); raw != "" {
		parsed, ok := authz.ParseRole(raw)
		if !ok {
			httputil.WriteBadRequest(w, "unknown role: "+raw)
			return
		}
		minRole = parsed
	}

	memberships := authz.GroupsWithRole(actor, minRole)
	if memberships == nil {
		memberships = []authz.GroupMembership{}
	}
	httputil.WriteSuccess(w, memberships)
}

// createGroup creates a group and makes the actor its owner.
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "group name is required")
		return
	}

	group := &store.Group{Name: req.Name}
	if err := s.storage.CreateGroup(r.Context(), group); err != nil {
		s.logger.WithError(err).Error("Failed to create group")
		httputil.WriteInternalError(w, errors.New("failed to create group"))
		return
	}
	if err := s.storage.AddMember(r.Context(), group.ID, actor.ID, authz.RoleOwner, nil); err != nil {
		s.logger.WithError(err).Error("Failed to add group creator as owner")
		httputil.WriteInternalError(w, errors.New("failed to create group"))
		return
	}
	s.invalidate(r, actor.ID)

	httputil.WriteCreated(w, group)
}

// getGroup returns group details.
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	group, err := s.storage.GetGroup(r.Context(), groupID)
	if errors.Is(err, store.ErrGroupNotFound) {
		httputil.WriteNotFoundError(w, "group not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get group")
		httputil.WriteInternalError(w, errors.New("failed to get group"))
		return
	}
	httputil.WriteSuccess(w, group)
}

// deleteGroup removes a group entirely.
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	err = s.storage.DeleteGroup(r.Context(), groupID)
	if errors.Is(err, store.ErrGroupNotFound) {
		httputil.WriteNotFoundError(w, "group not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete group")
		httputil.WriteInternalError(w, errors.New("failed to delete group"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getMyGroupAccess returns the actor's role and capabilities in one group.
func (s *Server) getMyGroupAccess(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	groupID := mux.Vars(r)["groupID"]

	response := groupAccessResponse{
		GroupID:      groupID,
		Capabilities: []authz.Capability{},
	}
	if role, ok := authz.RoleForGroup(actor, groupID); ok {
		response.Role = &role
		response.Capabilities = s.registry.CapabilitiesFor(role)
		for _, m := range actor.GroupMemberships {
			if m.GroupID == groupID {
				response.GroupName = m.GroupName
				break
			}
		}
	}
	httputil.WriteSuccess(w, response)
}

// listMembers lists a group's members.
func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	members, err := s.storage.ListMembers(r.Context(), groupID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list members")
		httputil.WriteInternalError(w, errors.New("failed to list members"))
		return
	}
	if members == nil {
		members = []*store.Member{}
	}
	httputil.WriteSuccess(w, members)
}

// addMember adds a user to the group.
func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		httputil.WriteBadRequest(w, "user_id is required")
		return
	}
	if !authz.IsValidRole(req.Role) {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	err = s.storage.AddMember(r.Context(), groupID, req.UserID, req.Role, &actor.ID)
	if errors.Is(err, store.ErrMemberExists) {
		httputil.WriteConflict(w, "user is already a member")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to add member")
		httputil.WriteInternalError(w, errors.New("failed to add member"))
		return
	}
	s.invalidate(r, req.UserID)
	w.WriteHeader(http.StatusCreated)
}

// updateMemberRole changes a member's role.
func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, err := uuid.Parse(vars["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}
	userID, err := uuid.Parse(vars["userID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user ID")
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if !authz.IsValidRole(req.Role) {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	err = s.storage.UpdateMemberRole(r.Context(), groupID, userID, req.Role)
	if errors.Is(err, store.ErrMemberNotFound) {
		httputil.WriteNotFoundError(w, "member not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to update member role")
		httputil.WriteInternalError(w, errors.New("failed to update member role"))
		return
	}
	s.invalidate(r, userID)
	w.WriteHeader(http.StatusNoContent)
}

// removeMember removes a user from the group.
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	groupID, err := uuid.Parse(vars["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}
	userID, err := uuid.Parse(vars["userID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user ID")
		return
	}

	err = s.storage.RemoveMember(r.Context(), groupID, userID)
	if errors.Is(err, store.ErrMemberNotFound) {
		httputil.WriteNotFoundError(w, "member not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to remove member")
		httputil.WriteInternalError(w, errors.New("failed to remove member"))
		return
	}
	s.invalidate(r, userID)
	w.WriteHeader(http.StatusNoContent)
}

// createInvitation invites an email address to join the group.
func (s *Server) createInvitation(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "email is required")
		return
	}
	if !authz.IsValidRole(req.Role) {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	inv, err := s.storage.CreateInvitation(r.Context(), groupID, req.Email, req.Role, actor.ID, s.invitationTTL)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create invitation")
		httputil.WriteInternalError(w, errors.New("failed to create invitation"))
		return
	}
	httputil.WriteCreated(w, inv)
}

// listInvitations lists pending invitations for the group.
func (s *Server) listInvitations(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid group ID")
		return
	}

	invitations, err := s.storage.ListInvitations(r.Context(), groupID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list invitations")
		httputil.WriteInternalError(w, errors.New("failed to list invitations"))
		return
	}
	if invitations == nil {
		invitations = []*store.Invitation{}
	}
	httputil.WriteSuccess(w, invitations)
}

// revokeInvitation cancels a pending invitation.
func (s *Server) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := uuid.Parse(mux.Vars(r)["invitationID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid invitation ID")
		return
	}

	err = s.storage.RevokeInvitation(r.Context(), invitationID)
	if errors.Is(err, store.ErrInvitationNotFound) {
		httputil.WriteNotFoundError(w, "invitation not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to revoke invitation")
		httputil.WriteInternalError(w, errors.New("failed to revoke invitation"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// acceptInvitation redeems an invitation token for the actor.
func (s *Server) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	inv, err := s.storage.AcceptInvitation(r.Context(), req.Token, actor.ID)
	switch {
	case errors.Is(err, store.ErrInvitationNotFound):
		httputil.WriteNotFoundError(w, "invitation not found")
		return
	case errors.Is(err, store.ErrInvitationExpired):
		httputil.WriteErrorMessage(w, http.StatusGone, "invitation expired")
		return
	case errors.Is(err, store.ErrMemberExists):
		httputil.WriteConflict(w, "already a member of this group")
		return
	case err != nil:
		s.logger.WithError(err).Error("Failed to accept invitation")
		httputil.WriteInternalError(w, errors.New("failed to accept invitation"))
		return
	}
	s.invalidate(r, actor.ID)
	httputil.WriteSuccess(w, inv)
}

// setTeamAssignment assigns a user to a team tier.
func (s *Server) setTeamAssignment(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user ID")
		return
	}

	var req setTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return
	}
	if _, ok := authz.ParseTeam(string(req.Team)); !ok {
		httputil.WriteBadRequest(w, "unknown team: "+string(req.Team))
		return
	}
	scope, _ := s.registry.ScopeOf(req.Team)
	switch scope {
	case authz.TeamScopeSpecific:
		if req.BoundGroupID == nil {
			httputil.WriteBadRequest(w, "team requires a bound group")
			return
		}
	case authz.TeamScopeAll:
		if req.BoundGroupID != nil {
			httputil.WriteBadRequest(w, "team does not bind to a group")
			return
		}
	}

	assignment := &store.TeamAssignment{
		UserID:       userID,
		Team:         req.Team,
		BoundGroupID: req.BoundGroupID,
	}
	if err := s.storage.SetTeamAssignment(r.Context(), assignment); err != nil {
		s.logger.WithError(err).Error("Failed to set team assignment")
		httputil.WriteInternalError(w, errors.New("failed to set team assignment"))
		return
	}
	httputil.WriteSuccess(w, assignment)
}

// getTeamAssignment returns a user's team assignment.
func (s *Server) getTeamAssignment(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user ID")
		return
	}

	assignment, ok, err := s.storage.GetTeamAssignment(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get team assignment")
		httputil.WriteInternalError(w, errors.New("failed to get team assignment"))
		return
	}
	if !ok {
		httputil.WriteNotFoundError(w, "no team assignment")
		return
	}
	httputil.WriteSuccess(w, assignment)
}
