package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orghub/orghub/pkg/authz"
)

// Store handles persistence for users, groups, memberships, invitations,
// team assignments and API tokens.
type Store struct {
	db *sql.DB
}

// NewStore creates a new store on top of an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and connection metrics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if user.GlobalRole != nil && !authz.IsValidRole(*user.GlobalRole) {
		return fmt.Errorf("invalid global role %q", *user.GlobalRole)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	var globalRole sql.NullString
	if user.GlobalRole != nil {
		globalRole = sql.NullString{String: string(*user.GlobalRole), Valid: true}
	}

	query := `
		INSERT INTO users (id, username, email, global_role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Email, globalRole, user.CreatedAt); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `SELECT id, username, email, global_role, created_at FROM users WHERE id = $1`

	user := &User{}
	var globalRole sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &globalRole, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if globalRole.Valid {
		role := authz.Role(globalRole.String)
		user.GlobalRole = &role
	}
	return user, nil
}

// CreateGroup inserts a new group.
func (s *Store) CreateGroup(ctx context.Context, group *Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now().UTC()

	query := `INSERT INTO groups (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, group.ID, group.Name, group.CreatedAt); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	query := `SELECT id, name, created_at FROM groups WHERE id = $1`

	group := &Group{}
	err := s.db.QueryRowContext(ctx, query, groupID).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group; memberships and invitations cascade.
func (s *Store) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// AddMember adds a user to a group with the given role.
func (s *Store) AddMember(ctx context.Context, groupID, userID uuid.UUID, role authz.Role, addedBy *uuid.UUID) error {
	if !authz.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	query := `
		INSERT INTO group_memberships (group_id, user_id, role, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, groupID, userID, role, addedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberExists
	}
	return nil
}

// UpdateMemberRole updates a member's role in a group.
func (s *Store) UpdateMemberRole(ctx context.Context, groupID, userID uuid.UUID, role authz.Role) error {
	if !authz.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	query := `UPDATE group_memberships SET role = $1 WHERE group_id = $2 AND user_id = $3`
	result, err := s.db.ExecContext(ctx, query, role, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RemoveMember removes a user from a group.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ListMembers retrieves all members of a group, joined with user details.
func (s *Store) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	query := `
		SELECT m.group_id, g.name, m.user_id, u.username, m.role, m.added_by, m.created_at
		FROM group_memberships m
		JOIN groups g ON g.id = m.group_id
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		var addedBy sql.NullString
		if err := rows.Scan(
			&member.GroupID, &member.GroupName, &member.UserID, &member.Username,
			&member.Role, &addedBy, &member.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if addedBy.Valid {
			id, err := uuid.Parse(addedBy.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse added_by: %w", err)
			}
			member.AddedBy = &id
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// GetUserWithAccess assembles the full access snapshot for a user: global
// role plus every group membership in insertion order. This is the single
// input the authorization guards consume.
func (s *Store) GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT m.group_id, g.name, m.role
		FROM group_memberships m
		JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	access := &authz.UserWithAccess{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		GlobalRole: user.GlobalRole,
	}
	for rows.Next() {
		var m authz.GroupMembership
		var groupID uuid.UUID
		if err := rows.Scan(&groupID, &m.GroupName, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.GroupID = groupID.String()
		access.GroupMemberships = append(access.GroupMemberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return access, nil
}

// CreateAPIToken mints a bearer token for a user.
func (s *Store) CreateAPIToken(ctx context.Context, userID uuid.UUID, name string, ttl time.Duration) (*APIToken, error) {
	tokenValue, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &APIToken{
		Token:     tokenValue,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	query := `
		INSERT INTO api_tokens (token, user_id, name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, token.Token, token.UserID, token.Name, token.CreatedAt, token.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// GetUserIDByToken resolves a bearer token to a user ID. Expired tokens are
// rejected.
func (s *Store) GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `SELECT user_id, expires_at FROM api_tokens WHERE token = $1`

	var userID uuid.UUID
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, query, token).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows {
		return uuid.Nil, ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// CreateInvitation creates a pending invitation with a fresh single-use token.
func (s *Store) CreateInvitation(ctx context.Context, groupID uuid.UUID, email string, role authz.Role, invitedBy uuid.UUID, ttl time.Duration) (*Invitation, error) {
	if !authz.IsValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	tokenValue, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &Invitation{
		ID:        uuid.New(),
		GroupID:   groupID,
		Email:     email,
		Role:      role,
		Token:     tokenValue,
		InvitedBy: invitedBy,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	query := `
		INSERT INTO group_invitations (id, group_id, email, role, token, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.GroupID, inv.Email, inv.Role, inv.Token, inv.InvitedBy, inv.CreatedAt, inv.ExpiresAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return inv, nil
}

// ListInvitations retrieves pending invitations for a group.
func (s *Store) ListInvitations(ctx context.Context, groupID uuid.UUID) ([]*Invitation, error) {
	query := `
		SELECT id, group_id, email, role, token, invited_by, created_at, expires_at, accepted_at
		FROM group_invitations
		WHERE group_id = $1 AND accepted_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		var acceptedAt sql.NullTime
		if err := rows.Scan(
			&inv.ID, &inv.GroupID, &inv.Email, &inv.Role, &inv.Token,
			&inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &acceptedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		if acceptedAt.Valid {
			t := acceptedAt.Time
			inv.AcceptedAt = &t
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invitations: %w", err)
	}

	return invitations, nil
}

// RevokeInvitation deletes a pending invitation. Accepted invitations are
// not revocable.
func (s *Store) RevokeInvitation(ctx context.Context, invitationID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM group_invitations WHERE id = $1 AND accepted_at IS NULL`,
		invitationID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// AcceptInvitation redeems an invitation token for a user, creating the
// membership with the invited role and marking the invitation accepted.
func (s *Store) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*Invitation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, group_id, email, role, token, invited_by, created_at, expires_at, accepted_at
		FROM group_invitations
		WHERE token = $1
	`
	inv := &Invitation{}
	var acceptedAt sql.NullTime
	err = tx.QueryRowContext(ctx, query, token).Scan(
		&inv.ID, &inv.GroupID, &inv.Email, &inv.Role, &inv.Token,
		&inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &acceptedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if acceptedAt.Valid {
		return nil, ErrInvitationNotFound
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, ErrInvitationExpired
	}

	insert := `
		INSERT INTO group_memberships (group_id, user_id, role, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, insert, inv.GroupID, userID, inv.Role, inv.InvitedBy, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrMemberExists
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE group_invitations SET accepted_at = $1 WHERE id = $2`,
		now, inv.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}
	inv.AcceptedAt = &now

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return inv, nil
}

// SetTeamAssignment assigns or reassigns a user's team tier. boundGroupID
// must be set when the team has specific scope and nil otherwise.
func (s *Store) SetTeamAssignment(ctx context.Context, assignment *TeamAssignment) error {
	var def authz.TeamDefinition
	found := false
	for _, d := range authz.DefaultTeams() {
		if d.Name == assignment.Team {
			def = d
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown team %q", assignment.Team)
	}
	if def.Scope == authz.TeamScopeSpecific && assignment.BoundGroupID == nil {
		return fmt.Errorf("team %q requires a bound group", assignment.Team)
	}
	if def.Scope == authz.TeamScopeAll && assignment.BoundGroupID != nil {
		return fmt.Errorf("team %q does not bind to a group", assignment.Team)
	}

	assignment.AssignedAt = time.Now().UTC()
	query := `
		INSERT INTO team_assignments (user_id, team, bound_group_id, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			team = EXCLUDED.team,
			bound_group_id = EXCLUDED.bound_group_id,
			assigned_at = EXCLUDED.assigned_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		assignment.UserID, assignment.Team, assignment.BoundGroupID, assignment.AssignedAt,
	); err != nil {
		return fmt.Errorf("failed to set team assignment: %w", err)
	}
	return nil
}

// GetTeamAssignment retrieves a user's team assignment; the second return is
// false when the user has none.
func (s *Store) GetTeamAssignment(ctx context.Context, userID uuid.UUID) (*TeamAssignment, bool, error) {
	query := `SELECT user_id, team, bound_group_id, assigned_at FROM team_assignments WHERE user_id = $1`

	assignment := &TeamAssignment{}
	var boundGroupID sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&assignment.UserID, &assignment.Team, &boundGroupID, &assignment.AssignedAt,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get team assignment: %w", err)
	}
	if boundGroupID.Valid {
		id, err := uuid.Parse(boundGroupID.String)
		if err != nil {
			return nil, false, fmt.Errorf("failed to parse bound group: %w", err)
		}
		assignment.BoundGroupID = &id
	}
	return assignment, true, nil
}

// CleanupExpiredInvitations deletes unaccepted invitations past their expiry.
func (s *Store) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM group_invitations WHERE accepted_at IS NULL AND expires_at < $1`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up invitations: %w", err)
	}
	return result.RowsAffected()
}

// CleanupExpiredTokens deletes API tokens past their expiry.
func (s *Store) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE expires_at < $1`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tokens: %w", err)
	}
	return result.RowsAffected()
}

// generateToken returns a 32-byte random hex token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
