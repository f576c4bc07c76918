package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"passguard/internal/api/handlers"
	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/expiry"
	"passguard/internal/models"
	"passguard/internal/policy"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type stubUsers struct {
	repository.BaseRepository
	user        *models.User
	updatedHash string
}

func (s *stubUsers) Create(context.Context, *models.User) error {
	return errors.New("unexpected call: Create")
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, repository.ErrUserNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, repository.ErrUserNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email == nil || *s.user.Email != email {
		return nil, repository.ErrUserNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUsers) List(context.Context, repository.UserFilter) ([]models.User, error) {
	if s.user == nil {
		return nil, nil
	}
	return []models.User{*s.user}, nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, id uuid.UUID, hashedPassword string) error {
	if s.user == nil || s.user.ID != id {
		return repository.ErrUserNotFound
	}
	s.updatedHash = hashedPassword
	s.user.Password = hashedPassword
	return nil
}

func (s *stubUsers) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }
func (s *stubUsers) IncrementFailedAttempts(context.Context, string) error       { return nil }
func (s *stubUsers) ResetFailedAttempts(context.Context, string) error           { return nil }

type stubHistory struct {
	repository.BaseRepository
	entries     []models.PasswordHistory
	trimCount   int
	trimOffset  int
	trimCalls   int
	addedHashes []string
}

func (s *stubHistory) Add(_ context.Context, userID uuid.UUID, hash string) error {
	s.addedHashes = append(s.addedHashes, hash)
	s.entries = append([]models.PasswordHistory{{
		ID:           uuid.New(),
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}}, s.entries...)
	return nil
}

func (s *stubHistory) Newest(context.Context, uuid.UUID) (*models.PasswordHistory, error) {
	if len(s.entries) == 0 {
		return nil, nil
	}
	return &s.entries[0], nil
}

func (s *stubHistory) Recent(_ context.Context, _ uuid.UUID, limit int) ([]models.PasswordHistory, error) {
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubHistory) DeleteExpired(_ context.Context, _ uuid.UUID, keepCount, offset int) error {
	s.trimCalls++
	s.trimCount = keepCount
	s.trimOffset = offset
	return nil
}

type stubSessions struct {
	repository.BaseRepository
	sessions     map[uuid.UUID]*models.Session
	deletedUsers []uuid.UUID
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *stubSessions) Create(_ context.Context, userID uuid.UUID) (*models.Session, error) {
	session := &models.Session{ID: uuid.New(), UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubSessions) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessions) SaveState(_ context.Context, id uuid.UUID, lastChecked, lastChanged *time.Time, changeRequired, expired bool) error {
	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastChecked = lastChecked
	session.LastChanged = lastChanged
	session.ChangeRequired = changeRequired
	session.Expired = expired
	return nil
}

func (s *stubSessions) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubSessions) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	s.deletedUsers = append(s.deletedUsers, userID)
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *stubSessions) DeleteExpired(context.Context, time.Time) error {
	return errors.New("unexpected call: DeleteExpired")
}

type stubForced struct {
	repository.BaseRepository
	exists map[uuid.UUID]bool
}

func newStubForced() *stubForced {
	return &stubForced{exists: make(map[uuid.UUID]bool)}
}

func (s *stubForced) Exists(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.exists[userID], nil
}

func (s *stubForced) Create(_ context.Context, userID uuid.UUID) error {
	s.exists[userID] = true
	return nil
}

func (s *stubForced) Clear(_ context.Context, userID uuid.UUID) error {
	delete(s.exists, userID)
	return nil
}

type stubAudit struct {
	repository.BaseRepository
	actions []models.AuditAction
}

func (s *stubAudit) Create(_ context.Context, entry *models.CreateAuditLogRequest) error {
	s.actions = append(s.actions, entry.Action)
	return nil
}

type stubRefreshTokens struct {
	repository.BaseRepository
	tokens       map[string]uuid.UUID
	deletedUsers []uuid.UUID
}

func newStubRefreshTokens() *stubRefreshTokens {
	return &stubRefreshTokens{tokens: make(map[string]uuid.UUID)}
}

func (s *stubRefreshTokens) Create(_ context.Context, userID uuid.UUID, token string, _ time.Time) error {
	s.tokens[token] = userID
	return nil
}

func (s *stubRefreshTokens) GetByToken(_ context.Context, token string) (*repository.RefreshToken, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	return &repository.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (s *stubRefreshTokens) DeleteByToken(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func (s *stubRefreshTokens) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	s.deletedUsers = append(s.deletedUsers, userID)
	for token, owner := range s.tokens {
		if owner == userID {
			delete(s.tokens, token)
		}
	}
	return nil
}

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		MinLength:       8,
		MinLetters:      3,
		MinLowercase:    1,
		MinUppercase:    1,
		MinDigits:       1,
		MinSymbols:      1,
		MaxConsecutive:  3,
		MinEntropyBits:  25,
		CommonSequences: config.DefaultCommonSequences,
		HistoryCount:    3,
		HistoryOffset:   0,
		ExpirySeconds:   int((90 * 24 * time.Hour) / time.Second),
		ChangePath:      "/password/change",
	}
}

type userFixture struct {
	user     *models.User
	users    *stubUsers
	history  *stubHistory
	sessions *stubSessions
	forced   *stubForced
	audit    *stubAudit
	refresh  *stubRefreshTokens
	cfg      *config.Config
	handler  *handlers.UserHandler
}

const currentPassword = "Old-Passw0rd#1"

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(currentPassword), bcrypt.MinCost)
	require.NoError(t, err)

	email := "johndoe@example.com"
	user := &models.User{
		ID:        uuid.New(),
		Username:  "johndoe",
		Password:  string(hash),
		Email:     &email,
		CreatedAt: time.Now().Add(-time.Hour),
	}

	cfg := &config.Config{Policy: testPolicyConfig()}
	cfg.Auth.JWTSecret = "test-secret"

	f := &userFixture{
		user:     user,
		users:    &stubUsers{user: user},
		history:  &stubHistory{},
		sessions: newStubSessions(),
		forced:   newStubForced(),
		audit:    &stubAudit{},
		refresh:  newStubRefreshTokens(),
		cfg:      cfg,
	}
	require.NoError(t, f.history.Add(context.Background(), user.ID, string(hash)))

	authService := auth.NewService(cfg, f.refresh)
	checker := expiry.NewChecker(f.history, f.forced, cfg.Policy.ExpiryDuration(), false)
	pipeline := policy.FromConfig(cfg.Policy, nil, nil)

	f.handler = handlers.NewUserHandler(f.users, authService, f.audit, cfg,
		f.history, f.sessions, f.forced, checker, pipeline)
	return f
}

func (f *userFixture) router(asUser *models.User, admin bool) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if asUser != nil {
			c.Set("user", asUser)
		}
		c.Set("is_admin", admin)
	})
	r.PUT("/users/:id/password", f.handler.ChangePassword)
	r.POST("/users/:id/force-password-change", f.handler.ForcePasswordChange)
	return r
}

func jsonRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeViolations(t *testing.T, w *httptest.ResponseRecorder) []policy.Violation {
	t.Helper()
	var resp handlers.PolicyViolationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Violations
}

func violationChecks(violations []policy.Violation) []string {
	checks := make([]string, 0, len(violations))
	for _, v := range violations {
		checks = append(checks, v.Check)
	}
	return checks
}

func TestChangePasswordSuccess(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, false)

	w := jsonRequest(t, r, http.MethodPut, "/users/"+f.user.ID.String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     "Br1ght-Falcon7",
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// New hash stored and verifiable
	require.NotEmpty(t, f.users.updatedHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.users.updatedHash), []byte("Br1ght-Falcon7")))

	// History extended and trimmed to the retention window
	require.Len(t, f.history.addedHashes, 2)
	require.Equal(t, 1, f.history.trimCalls)
	require.Equal(t, f.cfg.Policy.HistoryCount, f.history.trimCount)
	require.Equal(t, f.cfg.Policy.HistoryOffset, f.history.trimOffset)

	// Old sessions and refresh tokens are gone, one fresh session remains
	require.Equal(t, []uuid.UUID{f.user.ID}, f.sessions.deletedUsers)
	require.Equal(t, []uuid.UUID{f.user.ID}, f.refresh.deletedUsers)
	require.Len(t, f.sessions.sessions, 1)
	for _, session := range f.sessions.sessions {
		require.False(t, session.ChangeRequired)
		require.NotNil(t, session.LastChanged)
	}

	require.Contains(t, f.audit.actions, models.AuditActionPasswordChange)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, false)

	w := jsonRequest(t, r, http.MethodPut, "/users/"+f.user.ID.String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "Br1ght-Falcon7",
		})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, f.users.updatedHash)
}

func TestChangePasswordRejectsReuse(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, false)

	w := jsonRequest(t, r, http.MethodPut, "/users/"+f.user.ID.String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     currentPassword,
		})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, violationChecks(decodeViolations(t, w)), policy.CheckHistoryReuse)
	require.Empty(t, f.users.updatedHash)
}

func TestChangePasswordPolicyViolations(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, false)

	// Too short, single class: several checks fail and all are reported
	w := jsonRequest(t, r, http.MethodPut, "/users/"+f.user.ID.String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     "abc",
		})
	require.Equal(t, http.StatusBadRequest, w.Code)

	checks := violationChecks(decodeViolations(t, w))
	require.Contains(t, checks, policy.CheckMinLength)
	require.Contains(t, checks, policy.CheckUppercaseCount)
	require.Contains(t, checks, policy.CheckDigitCount)
	require.Contains(t, checks, policy.CheckSymbolCount)
}

func TestChangePasswordOtherUserForbidden(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, false)

	w := jsonRequest(t, r, http.MethodPut, "/users/"+uuid.New().String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     "Br1ght-Falcon7",
		})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestForcePasswordChange(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, true)

	w := jsonRequest(t, r, http.MethodPost, "/users/"+f.user.ID.String()+"/force-password-change", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.forced.exists[f.user.ID])
	require.Contains(t, f.audit.actions, models.AuditActionForceChange)

	// Idempotent: flagging twice is fine and keeps a single flag
	w = jsonRequest(t, r, http.MethodPost, "/users/"+f.user.ID.String()+"/force-password-change", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.forced.exists[f.user.ID])
}

func TestForcePasswordChangeUnknownUser(t *testing.T) {
	f := newUserFixture(t)
	r := f.router(f.user, true)

	w := jsonRequest(t, r, http.MethodPost, "/users/"+uuid.New().String()+"/force-password-change", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestForcedChangeClearedAfterChange(t *testing.T) {
	f := newUserFixture(t)
	require.NoError(t, f.forced.Create(context.Background(), f.user.ID))

	r := f.router(f.user, false)
	w := jsonRequest(t, r, http.MethodPut, "/users/"+f.user.ID.String()+"/password",
		models.ChangePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     "Br1ght-Falcon7",
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.False(t, f.forced.exists[f.user.ID])
}
