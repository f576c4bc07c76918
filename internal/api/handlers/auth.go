package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"passguard/internal/api/middleware"
	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/email"
	"passguard/internal/expiry"
	"passguard/internal/logger"
	"passguard/internal/models"
	"passguard/internal/policy"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionCookieMaxAge is how long the session cookie stays valid.
const sessionCookieMaxAge = 7 * 24 * time.Hour

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	userRepo          repository.UserRepository
	roleRepo          repository.RoleRepository
	authService       *auth.Service
	auditRepo         repository.AuditLogRepository
	emailService      email.Sender
	config            *config.Config
	loginAttemptRepo  repository.LoginAttemptRepository
	passwordResetRepo repository.PasswordResetRepository
	historyRepo       repository.PasswordHistoryRepository
	sessionRepo       repository.SessionRepository
	checker           *expiry.Checker
	pipeline          *policy.Pipeline
}

// NewAuthHandler creates a new authentication handler with the given dependencies
func NewAuthHandler(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	authService *auth.Service,
	auditRepo repository.AuditLogRepository,
	emailService email.Sender,
	config *config.Config,
	loginAttemptRepo repository.LoginAttemptRepository,
	passwordResetRepo repository.PasswordResetRepository,
	historyRepo repository.PasswordHistoryRepository,
	sessionRepo repository.SessionRepository,
	checker *expiry.Checker,
	pipeline *policy.Pipeline,
) *AuthHandler {
	return &AuthHandler{
		userRepo:          userRepo,
		roleRepo:          roleRepo,
		authService:       authService,
		auditRepo:         auditRepo,
		emailService:      emailService,
		config:            config,
		loginAttemptRepo:  loginAttemptRepo,
		passwordResetRepo: passwordResetRepo,
		historyRepo:       historyRepo,
		sessionRepo:       sessionRepo,
		checker:           checker,
		pipeline:          pipeline,
	}
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"johndoe"`
	Password string `json:"password" binding:"required" example:"mypassword123"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest represents a logout request
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PolicyViolationsResponse is returned when a password fails policy checks
type PolicyViolationsResponse struct {
	Error      string             `json:"error"`
	Violations []policy.Violation `json:"violations"`
}

// audit records an audit log entry, logging instead of failing on error.
func (h *AuthHandler) audit(c *gin.Context, userID *uuid.UUID, action models.AuditAction, description string, metadata map[string]interface{}) {
	details, _ := json.Marshal(metadata)
	entityID := ""
	if userID != nil {
		entityID = userID.String()
	}
	entry := &models.CreateAuditLogRequest{
		UserID:      userID,
		Action:      action,
		EntityType:  "user",
		EntityID:    entityID,
		Description: description,
		Metadata:    string(details),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	if err := h.auditRepo.Create(c.Request.Context(), entry); err != nil {
		logger.L().Warn("failed to create audit log", zap.Error(err))
	}
}

func setSessionCookie(c *gin.Context, sessionID uuid.UUID) {
	c.SetCookie(middleware.SessionCookie, sessionID.String(),
		int(sessionCookieMaxAge/time.Second), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
}

// Login godoc
// @Summary User login
// @Description Authenticate user, create a session and return access and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 429 {object} models.ErrorResponse "Too many failed attempts"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ipAddress := c.ClientIP()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userRepo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	if user.DeletedAt != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "account is inactive"})
		return
	}

	// Lockout on too many recent failures
	cutoff := time.Now().Add(-repository.LockoutDuration)
	recentAttempts, err := h.loginAttemptRepo.GetRecentAttempts(c.Request.Context(), user.ID, cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if recentAttempts >= repository.MaxLoginAttempts {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "too many failed login attempts"})
		return
	}

	if err := h.authService.ComparePasswords(user.Password, req.Password); err != nil {
		if err := h.loginAttemptRepo.Create(c.Request.Context(), user.ID, false, ipAddress, time.Now()); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
			return
		}
		if err := h.userRepo.IncrementFailedAttempts(c.Request.Context(), req.Username); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
			return
		}
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	if err := h.loginAttemptRepo.Create(c.Request.Context(), user.ID, true, ipAddress, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if err := h.userRepo.ResetFailedAttempts(c.Request.Context(), req.Username); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if err := h.loginAttemptRepo.ClearAttempts(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if err := h.userRepo.UpdateLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update login time"})
		return
	}

	role, err := h.roleRepo.GetByID(c.Request.Context(), user.RoleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get user role"})
		return
	}
	user.Role = role

	// Create the server-side session and run the initial expiry check so
	// the session starts with derived state instead of an empty cache.
	session, err := h.sessionRepo.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create session"})
		return
	}

	state, err := h.checker.Check(c.Request.Context(), user, expiry.StateFromSession(session), time.Now())
	if err != nil {
		logger.L().Error("password expiry check failed at login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	// With check-only-at-login the session must stay unstamped: a login
	// response cannot carry the redirect, and only the request whose check
	// time matches the stamp is allowed to derive state. Leaving the state
	// empty hands that one check to the first browsing request.
	if !h.config.Policy.CheckOnlyAtLogin {
		if err := h.sessionRepo.SaveState(c.Request.Context(), session.ID,
			state.LastChecked, state.LastChanged, state.ChangeRequired, state.Expired); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save session"})
			return
		}
	}
	setSessionCookie(c, session.ID)

	accessToken, err := h.authService.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate access token"})
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate refresh token"})
		return
	}

	h.audit(c, &user.ID, models.AuditActionLogin,
		fmt.Sprintf("User %s logged in successfully", user.Username),
		map[string]interface{}{"username": user.Username})

	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		MustChangePassword: state.ChangeRequired,
	})
}

// Register godoc
// @Summary Register new user
// @Description Register a new user account. The password must satisfy the configured policy. First user gets admin role.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "User registration details"
// @Success 201 {object} models.User "User created successfully"
// @Failure 400 {object} handlers.PolicyViolationsResponse "Invalid request or password policy violation"
// @Failure 403 {object} models.ErrorResponse "Registration is disabled"
// @Failure 409 {object} models.ErrorResponse "Username or email already exists"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	isAdmin := c.GetBool("is_admin")

	users, err := h.userRepo.List(c.Request.Context(), repository.UserFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to check existing users"})
		return
	}

	isFirstUser := len(users) == 0
	if !isFirstUser && !isAdmin && !h.config.Auth.RegistrationOpen {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "registration is disabled"})
		return
	}

	existingUser, err := h.userRepo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to check username"})
		return
	}
	if existingUser != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "username already exists"})
		return
	}

	if req.Email != nil {
		existingUser, err = h.userRepo.GetByEmail(c.Request.Context(), *req.Email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to check email"})
			return
		}
		if existingUser != nil {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "email already exists"})
			return
		}
	}

	policyCtx := policy.Context{
		Password: req.Password,
		Username: req.Username,
	}
	if req.Email != nil {
		policyCtx.Email = *req.Email
	}
	if violations := h.pipeline.Validate(policyCtx); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, PolicyViolationsResponse{
			Error:      "password does not satisfy the policy",
			Violations: violations,
		})
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}

	var role *models.Role
	if isFirstUser {
		role, err = h.roleRepo.GetByName(c.Request.Context(), "admin")
	} else {
		role, err = h.roleRepo.GetByName(c.Request.Context(), "user")
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get role"})
		return
	}

	user := &models.User{
		Username: req.Username,
		Password: hashedPassword,
		Email:    req.Email,
		RoleID:   role.ID,
		Role:     role,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "email already exists"})
		case errors.Is(err, repository.ErrUsernameExists):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "username already exists"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create user"})
		}
		return
	}

	// The initial password becomes the first history entry, which also
	// anchors the expiry clock for the new account.
	if err := h.historyRepo.Add(c.Request.Context(), user.ID, hashedPassword); err != nil {
		logger.L().Warn("failed to record initial password history",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	h.audit(c, &user.ID, models.AuditActionRegister,
		fmt.Sprintf("User %s registered successfully", user.Username),
		map[string]interface{}{"username": user.Username, "role": role.Name})

	c.JSON(http.StatusCreated, user)
}

// Logout godoc
// @Summary User logout
// @Description Delete the session and revoke the provided refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} models.SuccessResponse "Logged out"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if err := h.authService.DeleteRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to revoke refresh token"})
			return
		}
	}

	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
		if sessionID, err := uuid.Parse(cookie); err == nil {
			if err := h.sessionRepo.Delete(c.Request.Context(), sessionID); err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete session"})
				return
			}
		}
	}
	clearSessionCookie(c)

	if user := auth.GetUserFromContext(c); user != nil {
		h.audit(c, &user.ID, models.AuditActionLogout,
			fmt.Sprintf("User %s logged out", user.Username),
			map[string]interface{}{"username": user.Username})
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "logged out"})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange a valid refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.RefreshRequest true "Refresh token"
// @Success 200 {object} models.LoginResponse "New token pair"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid or expired refresh token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	userID, err := h.authService.ValidateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user not found"})
		return
	}

	role, err := h.roleRepo.GetByID(c.Request.Context(), user.RoleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get user role"})
		return
	}
	user.Role = role

	// Rotate the refresh token
	if err := h.authService.DeleteRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to rotate refresh token"})
		return
	}

	accessToken, err := h.authService.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate access token"})
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// RequestPasswordReset godoc
// @Summary Request password reset
// @Description Send a password reset link to the given email address if an account exists
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "Account email"
// @Success 200 {object} models.SuccessResponse "Reset link sent if the account exists"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Router /auth/reset-password [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	// The response is identical whether or not the account exists so the
	// endpoint cannot be used to enumerate users.
	response := models.SuccessResponse{Message: "if the email address is registered, a reset link has been sent"}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	reset, err := h.passwordResetRepo.Create(c.Request.Context(), user.ID)
	if err != nil {
		logger.L().Error("failed to create password reset token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		c.JSON(http.StatusOK, response)
		return
	}

	if err := h.emailService.SendPasswordResetEmail(req.Email, user.Username, reset.Token); err != nil {
		logger.L().Error("failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, response)
}

// CompletePasswordReset godoc
// @Summary Complete password reset
// @Description Set a new password using a valid reset token. The new password must satisfy the configured policy.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CompleteResetRequest true "Reset token and new password"
// @Success 200 {object} models.SuccessResponse "Password reset successfully"
// @Failure 400 {object} handlers.PolicyViolationsResponse "Invalid token or password policy violation"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/reset-password/complete [post]
func (h *AuthHandler) CompletePasswordReset(c *gin.Context) {
	var req models.CompleteResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	reset, err := h.passwordResetRepo.GetByToken(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrResetTokenExpired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "reset token has expired"})
		case errors.Is(err, repository.ErrResetTokenUsed):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "reset token has already been used"})
		case errors.Is(err, repository.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid reset token"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process reset"})
		}
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), reset.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load user"})
		return
	}

	history, err := h.historyRepo.Recent(c.Request.Context(), user.ID, h.config.Policy.HistoryCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load password history"})
		return
	}

	policyCtx := policy.Context{
		Password:       req.NewPassword,
		Username:       user.Username,
		PreviousHashes: historyHashes(history),
	}
	if user.Email != nil {
		policyCtx.Email = *user.Email
	}
	if violations := h.pipeline.Validate(policyCtx); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, PolicyViolationsResponse{
			Error:      "password does not satisfy the policy",
			Violations: violations,
		})
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process reset"})
		return
	}

	if err := applyPasswordChange(c.Request.Context(), h.userRepo, h.historyRepo,
		h.sessionRepo, h.authService, h.checker, h.config.Policy, user.ID, hashedPassword); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to reset password"})
		return
	}

	if err := h.passwordResetRepo.MarkAsUsed(c.Request.Context(), reset.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to finalize reset"})
		return
	}

	h.audit(c, &user.ID, models.AuditActionPasswordReset,
		fmt.Sprintf("User %s reset their password", user.Username),
		map[string]interface{}{"username": user.Username})

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password reset successfully"})
}
