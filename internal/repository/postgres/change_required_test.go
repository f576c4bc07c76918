package postgres_test

import (
	"context"
	"testing"

	"passguard/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestPasswordChangeRequiredRepository_CreateIsIdempotent(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("forced-user", "forced@example.com", "password123", false)

	exists, err := tc.ForcedRepo.Exists(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, exists)

	// Flagging twice must not error and must keep a single row
	require.NoError(t, tc.ForcedRepo.Create(context.Background(), user.ID))
	require.NoError(t, tc.ForcedRepo.Create(context.Background(), user.ID))

	exists, err = tc.ForcedRepo.Exists(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, exists)

	count := tc.CountRows("SELECT COUNT(*) FROM password_change_required WHERE user_id = $1", user.ID)
	require.Equal(t, 1, count)
}

func TestPasswordChangeRequiredRepository_Clear(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("forced-user", "forced@example.com", "password123", false)
	other := tc.CreateTestUser("other-user", "other@example.com", "password123", false)

	require.NoError(t, tc.ForcedRepo.Create(context.Background(), user.ID))
	require.NoError(t, tc.ForcedRepo.Create(context.Background(), other.ID))

	require.NoError(t, tc.ForcedRepo.Clear(context.Background(), user.ID))

	exists, err := tc.ForcedRepo.Exists(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, exists)

	// Clearing only touches the given user
	exists, err = tc.ForcedRepo.Exists(context.Background(), other.ID)
	require.NoError(t, err)
	require.True(t, exists)

	// Clearing an unflagged user is a no-op
	require.NoError(t, tc.ForcedRepo.Clear(context.Background(), user.ID))
}
