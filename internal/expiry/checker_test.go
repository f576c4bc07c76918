package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type historyStub struct {
	repository.BaseRepository
	newest      *models.PasswordHistory
	newestErr   error
	newestCalls int
}

func (s *historyStub) Add(context.Context, uuid.UUID, string) error {
	return errors.New("unexpected call: Add")
}

func (s *historyStub) Newest(context.Context, uuid.UUID) (*models.PasswordHistory, error) {
	s.newestCalls++
	return s.newest, s.newestErr
}

func (s *historyStub) Recent(context.Context, uuid.UUID, int) ([]models.PasswordHistory, error) {
	return nil, errors.New("unexpected call: Recent")
}

func (s *historyStub) DeleteExpired(context.Context, uuid.UUID, int, int) error {
	return errors.New("unexpected call: DeleteExpired")
}

type forcedStub struct {
	repository.BaseRepository
	exists      bool
	createCalls int
	clearCalls  int
}

func (s *forcedStub) Exists(context.Context, uuid.UUID) (bool, error) {
	return s.exists, nil
}

func (s *forcedStub) Create(context.Context, uuid.UUID) error {
	// Idempotent upsert: repeated calls leave a single record
	s.createCalls++
	s.exists = true
	return nil
}

func (s *forcedStub) Clear(context.Context, uuid.UUID) error {
	s.clearCalls++
	s.exists = false
	return nil
}

const duration = 90 * 24 * time.Hour

func testUser(createdAt time.Time) *models.User {
	return &models.User{ID: uuid.New(), Username: "johndoe", CreatedAt: createdAt}
}

func TestCheckFreshPasswordNotRequired(t *testing.T) {
	now := time.Now()
	history := &historyStub{}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, false)

	// Password "changed" just inside the window
	user := testUser(now.Add(-duration + time.Minute))
	st, err := checker.Check(context.Background(), user, State{}, now)
	require.NoError(t, err)
	require.False(t, st.ChangeRequired)
	require.False(t, st.Expired)
	require.NotNil(t, st.LastChecked)
	require.NotNil(t, st.LastChanged)
	require.Zero(t, forced.createCalls)
}

func TestCheckExpiredPasswordRequired(t *testing.T) {
	now := time.Now()
	history := &historyStub{}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, false)

	user := testUser(now.Add(-duration - time.Minute))
	st, err := checker.Check(context.Background(), user, State{}, now)
	require.NoError(t, err)
	require.True(t, st.ChangeRequired)
	require.True(t, st.Expired)
	require.Equal(t, 1, forced.createCalls)
}

func TestCheckUsesNewestHistoryEntry(t *testing.T) {
	now := time.Now()
	history := &historyStub{newest: &models.PasswordHistory{
		CreatedAt: now.Add(-duration - time.Hour),
	}}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, false)

	// Account is newer than the history entry; history wins
	user := testUser(now.Add(-time.Hour))
	st, err := checker.Check(context.Background(), user, State{}, now)
	require.NoError(t, err)
	require.True(t, st.ChangeRequired)
	require.Equal(t, 1, history.newestCalls)
}

func TestCheckIdempotentWithinInstant(t *testing.T) {
	now := time.Now()
	history := &historyStub{}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, false)

	user := testUser(now.Add(-duration - time.Minute))
	st1, err := checker.Check(context.Background(), user, State{}, now)
	require.NoError(t, err)

	st2, err := checker.Check(context.Background(), user, st1, now)
	require.NoError(t, err)
	require.Equal(t, st1.ChangeRequired, st2.ChangeRequired)

	// The forced record stays unique
	require.Equal(t, 1, forced.createCalls)
}

func TestCheckForcedChangeSkipsHistory(t *testing.T) {
	now := time.Now()
	// Zero creation time would make a history derivation fail loudly, so a
	// passing check proves history was never consulted.
	history := &historyStub{}
	forced := &forcedStub{exists: true}
	checker := NewChecker(history, forced, duration, false)

	st, err := checker.Check(context.Background(), testUser(time.Time{}), State{}, now)
	require.NoError(t, err)
	require.True(t, st.ChangeRequired)
	require.Zero(t, history.newestCalls)
}

func TestCheckOnlyAtLoginSkipsRecheck(t *testing.T) {
	now := time.Now()
	history := &historyStub{}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, true)

	// First check of the session derives state normally
	user := testUser(now.Add(-duration - time.Minute))
	st, err := checker.Check(context.Background(), user, State{}, now)
	require.NoError(t, err)
	require.True(t, st.ChangeRequired)

	// Later requests in the same session short-circuit to false instead of
	// looping on the redirect, without touching the database again.
	later := now.Add(time.Second)
	calls := history.newestCalls
	st, err = checker.Check(context.Background(), user, st, later)
	require.NoError(t, err)
	require.False(t, st.ChangeRequired)
	require.Equal(t, calls, history.newestCalls)
}

func TestCheckStaleCacheInvalidation(t *testing.T) {
	now := time.Now()
	history := &historyStub{newest: &models.PasswordHistory{
		CreatedAt: now.Add(-time.Hour),
	}}
	forced := &forcedStub{}
	checker := NewChecker(history, forced, duration, false)

	// Session carries a stale check from beyond the duration plus a bogus
	// last-changed value; both must be dropped and re-derived.
	staleChecked := now.Add(-duration - time.Hour)
	staleChanged := now.Add(-2 * duration)
	st, err := checker.Check(context.Background(), testUser(now), staleState{staleChecked, staleChanged}.state(), now)
	require.NoError(t, err)
	require.False(t, st.ChangeRequired)
	require.True(t, st.LastChecked.Equal(now))
	require.True(t, st.LastChanged.Equal(history.newest.CreatedAt))
	require.Equal(t, 1, history.newestCalls)
}

type staleState struct {
	checked time.Time
	changed time.Time
}

func (s staleState) state() State {
	return State{LastChecked: &s.checked, LastChanged: &s.changed, ChangeRequired: true, Expired: true}
}

func TestCheckNoHistoryNoCreationTime(t *testing.T) {
	now := time.Now()
	checker := NewChecker(&historyStub{}, &forcedStub{}, duration, false)

	_, err := checker.Check(context.Background(), testUser(time.Time{}), State{}, now)
	require.ErrorIs(t, err, ErrNoCreationTime)
}

func TestReset(t *testing.T) {
	now := time.Now()
	forced := &forcedStub{exists: true}
	checker := NewChecker(&historyStub{}, forced, duration, false)

	st, err := checker.Reset(context.Background(), uuid.New(), now)
	require.NoError(t, err)
	require.False(t, forced.exists)
	require.Equal(t, 1, forced.clearCalls)
	require.False(t, st.ChangeRequired)
	require.False(t, st.Expired)
	require.True(t, st.LastChecked.Equal(now))
	require.True(t, st.LastChanged.Equal(now))
}
