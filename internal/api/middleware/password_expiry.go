package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/expiry"
	"passguard/internal/logger"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie is the name of the cookie carrying the server-side session id.
const SessionCookie = "passguard_session"

// PasswordExpiryMiddleware decides per request whether the authenticated
// user must change their password, caching the outcome in the session so
// the derivation is not repeated on every request.
type PasswordExpiryMiddleware struct {
	cfg      config.PolicyConfig
	sessions repository.SessionRepository
	checker  *expiry.Checker
	excluded []*regexp.Regexp
}

// NewPasswordExpiryMiddleware compiles the exclusion patterns and returns
// the middleware. Patterns were validated at config load, so a failure here
// means the config was bypassed.
func NewPasswordExpiryMiddleware(cfg config.PolicyConfig, sessions repository.SessionRepository, checker *expiry.Checker) (*PasswordExpiryMiddleware, error) {
	excluded := make([]*regexp.Regexp, 0, len(cfg.ExcludedPaths))
	for _, pattern := range cfg.ExcludedPaths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		excluded = append(excluded, re)
	}

	return &PasswordExpiryMiddleware{
		cfg:      cfg,
		sessions: sessions,
		checker:  checker,
		excluded: excluded,
	}, nil
}

// skipPath reports whether the request path is exempt from the check: the
// change endpoint itself, static assets, logout when allowed, and any
// configured exclusion pattern.
func (m *PasswordExpiryMiddleware) skipPath(path string) bool {
	if path == m.cfg.ChangePath {
		return true
	}
	for _, prefix := range m.cfg.StaticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if m.cfg.AllowLogout && path == m.cfg.LogoutPath {
		return true
	}
	for _, re := range m.excluded {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Handle returns the gin middleware. Only GET requests are intercepted so
// in-flight form submissions are never swallowed by a redirect.
func (m *PasswordExpiryMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.cfg.ExpiryEnabled() {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		if m.skipPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		user := auth.GetUserFromContext(c)
		if user == nil {
			c.Next()
			return
		}

		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			c.Next()
			return
		}
		sessionID, err := uuid.Parse(cookie)
		if err != nil {
			c.Next()
			return
		}

		session, err := m.sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				c.Next()
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			c.Abort()
			return
		}
		if session.UserID != user.ID {
			c.Next()
			return
		}

		state, err := m.checker.Check(c.Request.Context(), user, expiry.StateFromSession(session), time.Now())
		if err != nil {
			logger.L().Error("password expiry check failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password expiry check failed"})
			c.Abort()
			return
		}

		if err := m.sessions.SaveState(c.Request.Context(), session.ID,
			state.LastChecked, state.LastChanged, state.ChangeRequired, state.Expired); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
			c.Abort()
			return
		}

		if state.ChangeRequired {
			next := url.Values{"next": {c.Request.URL.RequestURI()}}
			c.Redirect(http.StatusFound, m.cfg.ChangePath+"?"+next.Encode())
			c.Abort()
			return
		}

		c.Next()
	}
}
