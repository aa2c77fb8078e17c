package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/pkg/authz"
)

// These tests exercise database failure paths that the sqlite-backed tests
// cannot reach.

func TestListMembersQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT m.group_id").WillReturnError(assert.AnError)

	s := NewStore(db)
	_, err = s.ListMembers(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "failed to list members")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserWithAccessMembershipError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()
	mock.ExpectQuery("SELECT id, username, email").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "global_role", "created_at"}).
			AddRow(userID.String(), "alice", "alice@example.com", nil, time.Now()))
	mock.ExpectQuery("SELECT m.group_id").WillReturnError(assert.AnError)

	s := NewStore(db)
	_, err = s.GetUserWithAccess(context.Background(), userID)
	assert.ErrorContains(t, err, "failed to list memberships")
}

func TestAddMemberExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO group_memberships").WillReturnError(assert.AnError)

	s := NewStore(db)
	err = s.AddMember(context.Background(), uuid.New(), uuid.New(), authz.RoleGuest, nil)
	assert.ErrorContains(t, err, "failed to add member")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	s := NewStore(db)
	_, err = s.AcceptInvitation(context.Background(), "tok", uuid.New())
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpiredTokensExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM api_tokens").WillReturnError(assert.AnError)

	s := NewStore(db)
	_, err = s.CleanupExpiredTokens(context.Background())
	assert.ErrorContains(t, err, "failed to clean up tokens")
	assert.NoError(t, mock.ExpectationsWereMet())
}
