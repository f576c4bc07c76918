package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"passguard/internal/api/handlers"
	"passguard/internal/config"
	"passguard/internal/models"
	"passguard/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newPolicyRouter(t *testing.T, asUser *models.User, history *stubHistory) *gin.Engine {
	t.Helper()

	cfg := &config.Config{Policy: testPolicyConfig()}
	pipeline := policy.FromConfig(cfg.Policy, nil, nil)
	handler := handlers.NewPolicyHandler(pipeline, history, cfg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if asUser != nil {
			c.Set("user", asUser)
		}
	})
	r.POST("/auth/password/validate", handler.ValidatePassword)
	return r
}

func TestValidatePasswordAnonymous(t *testing.T) {
	r := newPolicyRouter(t, nil, &stubHistory{})

	w := jsonRequest(t, r, http.MethodPost, "/auth/password/validate",
		models.ValidatePasswordRequest{Password: "abc"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ValidatePasswordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Contains(t, violationChecks(resp.Violations), policy.CheckMinLength)
}

func TestValidatePasswordAccepts(t *testing.T) {
	r := newPolicyRouter(t, nil, &stubHistory{})

	w := jsonRequest(t, r, http.MethodPost, "/auth/password/validate",
		models.ValidatePasswordRequest{Password: "Br1ght-Falcon7"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ValidatePasswordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
	require.Empty(t, resp.Violations)
}

func TestValidatePasswordUsesCallerIdentity(t *testing.T) {
	f := newUserFixture(t)
	r := newPolicyRouter(t, f.user, f.history)

	// The caller's own username is rejected by the identity check
	w := jsonRequest(t, r, http.MethodPost, "/auth/password/validate",
		models.ValidatePasswordRequest{Password: f.user.Username})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ValidatePasswordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Contains(t, violationChecks(resp.Violations), policy.CheckIdentity)
}

func TestValidatePasswordFlagsHistoryReuse(t *testing.T) {
	f := newUserFixture(t)
	r := newPolicyRouter(t, f.user, f.history)

	w := jsonRequest(t, r, http.MethodPost, "/auth/password/validate",
		models.ValidatePasswordRequest{Password: currentPassword})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ValidatePasswordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Contains(t, violationChecks(resp.Violations), policy.CheckHistoryReuse)
}
