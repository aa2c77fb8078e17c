package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/middleware"
	"github.com/orghub/orghub/pkg/observability"
	"github.com/orghub/orghub/pkg/store"
)

// fakeStorage is an in-memory Storage for handler tests.
type fakeStorage struct {
	groups      map[uuid.UUID]*store.Group
	members     map[uuid.UUID][]*store.Member
	invitations map[string]*store.Invitation
	assignments map[uuid.UUID]*store.TeamAssignment

	acceptErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		groups:      make(map[uuid.UUID]*store.Group),
		members:     make(map[uuid.UUID][]*store.Member),
		invitations: make(map[string]*store.Invitation),
		assignments: make(map[uuid.UUID]*store.TeamAssignment),
	}
}

func (f *fakeStorage) CreateGroup(ctx context.Context, group *store.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now()
	f.groups[group.ID] = group
	return nil
}

func (f *fakeStorage) GetGroup(ctx context.Context, groupID uuid.UUID) (*store.Group, error) {
	group, ok := f.groups[groupID]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	return group, nil
}

func (f *fakeStorage) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	if _, ok := f.groups[groupID]; !ok {
		return store.ErrGroupNotFound
	}
	delete(f.groups, groupID)
	return nil
}

func (f *fakeStorage) AddMember(ctx context.Context, groupID, userID uuid.UUID, role authz.Role, addedBy *uuid.UUID) error {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return store.ErrMemberExists
		}
	}
	f.members[groupID] = append(f.members[groupID], &store.Member{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
		AddedBy: addedBy,
	})
	return nil
}

func (f *fakeStorage) UpdateMemberRole(ctx context.Context, groupID, userID uuid.UUID, role authz.Role) error {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			m.Role = role
			return nil
		}
	}
	return store.ErrMemberNotFound
}

func (f *fakeStorage) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	members := f.members[groupID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return store.ErrMemberNotFound
}

func (f *fakeStorage) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*store.Member, error) {
	return f.members[groupID], nil
}

func (f *fakeStorage) CreateInvitation(ctx context.Context, groupID uuid.UUID, email string, role authz.Role, invitedBy uuid.UUID, ttl time.Duration) (*store.Invitation, error) {
	inv := &store.Invitation{
		ID:        uuid.New(),
		GroupID:   groupID,
		Email:     email,
		Role:      role,
		Token:     fmt.Sprintf("tok-%d", len(f.invitations)),
		InvitedBy: invitedBy,
		ExpiresAt: time.Now().Add(ttl),
	}
	f.invitations[inv.Token] = inv
	return inv, nil
}

func (f *fakeStorage) ListInvitations(ctx context.Context, groupID uuid.UUID) ([]*store.Invitation, error) {
	var out []*store.Invitation
	for _, inv := range f.invitations {
		if inv.GroupID == groupID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStorage) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*store.Invitation, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	inv, ok := f.invitations[token]
	if !ok {
		return nil, store.ErrInvitationNotFound
	}
	return inv, nil
}

func (f *fakeStorage) RevokeInvitation(ctx context.Context, invitationID uuid.UUID) error {
	for token, inv := range f.invitations {
		if inv.ID == invitationID {
			delete(f.invitations, token)
			return nil
		}
	}
	return store.ErrInvitationNotFound
}

func (f *fakeStorage) SetTeamAssignment(ctx context.Context, assignment *store.TeamAssignment) error {
	f.assignments[assignment.UserID] = assignment
	return nil
}

func (f *fakeStorage) GetTeamAssignment(ctx context.Context, userID uuid.UUID) (*store.TeamAssignment, bool, error) {
	assignment, ok := f.assignments[userID]
	return assignment, ok, nil
}

// fakeAuth maps bearer tokens to access snapshots.
type fakeAuth struct {
	actors map[string]*authz.UserWithAccess
}

func (f *fakeAuth) GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	actor, ok := f.actors[token]
	if !ok {
		return uuid.Nil, store.ErrTokenInvalid
	}
	return actor.ID, nil
}

func (f *fakeAuth) GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error) {
	for _, actor := range f.actors {
		if actor.ID == userID {
			return actor, nil
		}
	}
	return nil, store.ErrUserNotFound
}

type testHarness struct {
	server  *Server
	storage *fakeStorage
	auth    *fakeAuth
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	storage := newFakeStorage()
	auth := &fakeAuth{actors: make(map[string]*authz.UserWithAccess)}
	registry := authz.MustRegistry()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	server := NewServer(
		storage,
		registry,
		middleware.NewAuthMiddleware(auth, auth, false),
		middleware.NewGuardMiddleware(registry, nil),
		nil,
		logger,
		7*24*time.Hour,
	)
	return &testHarness{server: server, storage: storage, auth: auth}
}

// addActor registers an actor reachable with the returned bearer token.
func (h *testHarness) addActor(token string, role authz.Role, groupID uuid.UUID) *authz.UserWithAccess {
	actor := &authz.UserWithAccess{
		ID:       uuid.New(),
		Username: token + "-user",
		Email:    token + "@example.com",
		GroupMemberships: []authz.GroupMembership{
			{GroupID: groupID.String(), GroupName: "g-" + token, Role: role},
		},
	}
	h.auth.actors[token] = actor
	return actor
}

func (h *testHarness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/teams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTeams(t *testing.T) {
	h := newTestHarness(t)
	h.addActor("alice", authz.RoleGuest, uuid.New())

	rec := h.do(t, http.MethodGet, "/api/v1/teams", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []teamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	require.Len(t, teams, 7)
	assert.Equal(t, authz.TeamOwner, teams[0].Name)
	assert.Equal(t, 7, teams[0].Rank)
	assert.Equal(t, authz.TeamSquad, teams[6].Name)
}

func TestListCapabilities(t *testing.T) {
	h := newTestHarness(t)
	h.addActor("alice", authz.RoleGuest, uuid.New())

	rec := h.do(t, http.MethodGet, "/api/v1/capabilities", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var domains []domainCapabilitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domains))
	assert.Len(t, domains, len(authz.AllDomains()))
}

func TestGetMe(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	actor := h.addActor("alice", authz.RoleOwner, groupID)

	rec := h.do(t, http.MethodGet, "/api/v1/me", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, actor.ID, me.ID)
	assert.True(t, me.IsOwner)
	require.Len(t, me.Memberships, 1)
	assert.Equal(t, groupID.String(), me.Memberships[0].GroupID)
}

func TestListMyGroupsMinRoleFilter(t *testing.T) {
	h := newTestHarness(t)
	g1, g2 := uuid.New(), uuid.New()
	actor := h.addActor("alice", authz.RoleOwner, g1)
	actor.GroupMemberships = append(actor.GroupMemberships, authz.GroupMembership{
		GroupID: g2.String(), GroupName: "second", Role: authz.RoleGuest,
	})

	rec := h.do(t, http.MethodGet, "/api/v1/me/groups?min_role=manager", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var memberships []authz.GroupMembership
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &memberships))
	require.Len(t, memberships, 1)
	assert.Equal(t, g1.String(), memberships[0].GroupID)

	rec = h.do(t, http.MethodGet, "/api/v1/me/groups?min_role=warlord", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupMakesActorOwner(t *testing.T) {
	h := newTestHarness(t)
	actor := h.addActor("alice", authz.RoleGuest, uuid.New())

	rec := h.do(t, http.MethodPost, "/api/v1/groups", "alice", createGroupRequest{Name: "newgroup"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var group store.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &group))

	members := h.storage.members[group.ID]
	require.Len(t, members, 1)
	assert.Equal(t, actor.ID, members[0].UserID)
	assert.Equal(t, authz.RoleOwner, members[0].Role)
}

func TestGroupAccessIntrospection(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("alice", authz.RoleManager, groupID)

	rec := h.do(t, http.MethodGet, "/api/v1/groups/"+groupID.String()+"/me", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var access groupAccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &access))
	require.NotNil(t, access.Role)
	assert.Equal(t, authz.RoleManager, *access.Role)
	assert.Contains(t, access.Capabilities, authz.CapTasksAssign)
	assert.NotContains(t, access.Capabilities, authz.CapSettingsEdit)
}

func TestGroupAccessDeniedForNonMember(t *testing.T) {
	h := newTestHarness(t)
	h.addActor("alice", authz.RoleOwner, uuid.New())

	rec := h.do(t, http.MethodGet, "/api/v1/groups/"+uuid.NewString()+"/me", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMemberManagement(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	admin := h.addActor("admin", authz.RoleAdmin, groupID)
	h.addActor("guest", authz.RoleGuest, groupID)

	target := uuid.New()
	path := "/api/v1/groups/" + groupID.String() + "/members"

	// guests cannot manage members
	rec := h.do(t, http.MethodPost, path, "guest", addMemberRequest{UserID: target, Role: authz.RoleGuest})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// admins can
	rec = h.do(t, http.MethodPost, path, "admin", addMemberRequest{UserID: target, Role: authz.RoleCollaborator})
	require.Equal(t, http.StatusCreated, rec.Code)

	members := h.storage.members[groupID]
	require.Len(t, members, 1)
	require.NotNil(t, members[0].AddedBy)
	assert.Equal(t, admin.ID, *members[0].AddedBy)

	// duplicate add conflicts
	rec = h.do(t, http.MethodPost, path, "admin", addMemberRequest{UserID: target, Role: authz.RoleGuest})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// bad role rejected before the store sees it
	rec = h.do(t, http.MethodPost, path, "admin", map[string]string{"user_id": uuid.NewString(), "role": "emperor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// role update
	rec = h.do(t, http.MethodPut, path+"/"+target.String(), "admin", updateMemberRequest{Role: authz.RoleManager})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, authz.RoleManager, h.storage.members[groupID][0].Role)

	// removal
	rec = h.do(t, http.MethodDelete, path+"/"+target.String(), "admin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodDelete, path+"/"+target.String(), "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvitationFlow(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("manager", authz.RoleManager, groupID)
	h.addActor("joiner", authz.RoleGuest, uuid.New())

	path := "/api/v1/groups/" + groupID.String() + "/invitations"

	rec := h.do(t, http.MethodPost, path, "manager", createInvitationRequest{Email: "new@example.com", Role: authz.RoleCollaborator})
	require.Equal(t, http.StatusCreated, rec.Code)

	var inv store.Invitation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))

	rec = h.do(t, http.MethodPost, "/api/v1/invitations/accept", "joiner", acceptInvitationRequest{Token: inv.Token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/invitations/accept", "joiner", acceptInvitationRequest{Token: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.storage.acceptErr = store.ErrInvitationExpired
	rec = h.do(t, http.MethodPost, "/api/v1/invitations/accept", "joiner", acceptInvitationRequest{Token: inv.Token})
	assert.Equal(t, http.StatusGone, rec.Code)

	h.storage.acceptErr = store.ErrMemberExists
	rec = h.do(t, http.MethodPost, "/api/v1/invitations/accept", "joiner", acceptInvitationRequest{Token: inv.Token})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRevokeInvitation(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("manager", authz.RoleManager, groupID)
	h.addActor("guest", authz.RoleGuest, groupID)

	path := "/api/v1/groups/" + groupID.String() + "/invitations"
	rec := h.do(t, http.MethodPost, path, "manager", createInvitationRequest{Email: "new@example.com", Role: authz.RoleGuest})
	require.Equal(t, http.StatusCreated, rec.Code)

	var inv store.Invitation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))

	rec = h.do(t, http.MethodDelete, path+"/"+inv.ID.String(), "guest", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, path+"/"+inv.ID.String(), "manager", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// already revoked
	rec = h.do(t, http.MethodDelete, path+"/"+inv.ID.String(), "manager", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvitationRequiresInviteCapability(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("collab", authz.RoleCollaborator, groupID)

	rec := h.do(t, http.MethodPost, "/api/v1/groups/"+groupID.String()+"/invitations", "collab",
		createInvitationRequest{Email: "x@example.com", Role: authz.RoleGuest})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteGroupRequiresAdminDeleteCapability(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("owner", authz.RoleOwner, groupID)
	h.addActor("admin", authz.RoleAdmin, groupID)

	h.storage.groups[groupID] = &store.Group{ID: groupID, Name: "doomed"}

	rec := h.do(t, http.MethodDelete, "/api/v1/groups/"+groupID.String(), "admin", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/v1/groups/"+groupID.String(), "owner", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTeamAssignmentEndpoints(t *testing.T) {
	h := newTestHarness(t)
	groupID := uuid.New()
	h.addActor("owner", authz.RoleOwner, groupID)
	h.addActor("admin", authz.RoleAdmin, groupID)

	target := uuid.New()
	path := "/api/v1/users/" + target.String() + "/team"

	// only owners reach the tenant-level surface
	rec := h.do(t, http.MethodPut, path, "admin", setTeamRequest{Team: authz.TeamExecutive})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// all-scope team with a bound group is rejected
	rec = h.do(t, http.MethodPut, path, "owner", setTeamRequest{Team: authz.TeamExecutive, BoundGroupID: &groupID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// specific-scope team without a bound group is rejected
	rec = h.do(t, http.MethodPut, path, "owner", setTeamRequest{Team: authz.TeamSquad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPut, path, "owner", setTeamRequest{Team: authz.TeamSquad, BoundGroupID: &groupID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, path, "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var assignment store.TeamAssignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assignment))
	assert.Equal(t, authz.TeamSquad, assignment.Team)

	rec = h.do(t, http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/team", "owner", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
