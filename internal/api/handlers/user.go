package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/expiry"
	"passguard/internal/models"
	"passguard/internal/policy"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles HTTP requests for user management
type UserHandler struct {
	userRepo    repository.UserRepository
	authService *auth.Service
	auditRepo   repository.AuditLogRepository
	config      *config.Config
	historyRepo repository.PasswordHistoryRepository
	sessionRepo repository.SessionRepository
	forcedRepo  repository.PasswordChangeRequiredRepository
	checker     *expiry.Checker
	pipeline    *policy.Pipeline
}

// NewUserHandler creates a new user handler with the given dependencies
func NewUserHandler(
	userRepo repository.UserRepository,
	authService *auth.Service,
	auditRepo repository.AuditLogRepository,
	config *config.Config,
	historyRepo repository.PasswordHistoryRepository,
	sessionRepo repository.SessionRepository,
	forcedRepo repository.PasswordChangeRequiredRepository,
	checker *expiry.Checker,
	pipeline *policy.Pipeline,
) *UserHandler {
	return &UserHandler{
		userRepo:    userRepo,
		authService: authService,
		auditRepo:   auditRepo,
		config:      config,
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,
		forcedRepo:  forcedRepo,
		checker:     checker,
		pipeline:    pipeline,
	}
}

func (h *UserHandler) audit(c *gin.Context, userID *uuid.UUID, action models.AuditAction, description string) {
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
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	_ = h.auditRepo.Create(c.Request.Context(), entry)
}

// GetMe godoc
// @Summary Get current user
// @Description Return the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser godoc
// @Summary Get user by ID
// @Description Return a user by id. Admins can read any user, others only themselves.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Invalid user id"
// @Failure 403 {object} models.ErrorResponse "Not allowed"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	ctxUser := auth.GetUserFromContext(c)
	if ctxUser == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}
	if !c.GetBool("is_admin") && ctxUser.ID != id {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "not allowed"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Description List users with optional filtering. Admin only.
// @Tags users
// @Produce json
// @Param search query string false "Search username or email"
// @Param limit query int false "Limit results"
// @Param offset query int false "Offset results"
// @Param order_by query string false "Order by field (username, created_at, last_login_at)"
// @Param order_desc query bool false "Order descending"
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse "Admin access required"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		OrderBy:   c.Query("order_by"),
		OrderDesc: c.Query("order_desc") == "true",
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = &limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = &offset
		}
	}

	users, err := h.userRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ChangePassword godoc
// @Summary Change own password
// @Description Change the authenticated user's password. The new password must satisfy the configured policy and may not reuse a retained previous password.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} models.SuccessResponse "Password changed"
// @Failure 400 {object} handlers.PolicyViolationsResponse "Invalid request or password policy violation"
// @Failure 401 {object} models.ErrorResponse "Current password is incorrect"
// @Failure 403 {object} models.ErrorResponse "Can only change own password"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id}/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}
	if user.ID != id {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "can only change own password"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authService.ComparePasswords(user.Password, req.CurrentPassword); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "current password is incorrect"})
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
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process password change"})
		return
	}

	if err := applyPasswordChange(c.Request.Context(), h.userRepo, h.historyRepo,
		h.sessionRepo, h.authService, h.checker, h.config.Policy, user.ID, hashedPassword); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}

	// Old sessions are gone; hand out a fresh one with just-changed state so
	// the expiry middleware does not re-derive it from scratch.
	session, err := h.sessionRepo.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create session"})
		return
	}
	state := expiry.JustChanged(time.Now())
	if err := h.sessionRepo.SaveState(c.Request.Context(), session.ID,
		state.LastChecked, state.LastChanged, state.ChangeRequired, state.Expired); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save session"})
		return
	}
	setSessionCookie(c, session.ID)

	h.audit(c, &user.ID, models.AuditActionPasswordChange,
		fmt.Sprintf("User %s changed their password", user.Username))

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password changed successfully"})
}

// ForcePasswordChange godoc
// @Summary Force a password change
// @Description Flag a user so their next session requires a password change. Admin only. Idempotent.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.SuccessResponse "User flagged"
// @Failure 400 {object} models.ErrorResponse "Invalid user id"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /users/{id}/force-password-change [post]
func (h *UserHandler) ForcePasswordChange(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load user"})
		return
	}

	if err := h.forcedRepo.Create(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to flag user"})
		return
	}

	h.audit(c, &user.ID, models.AuditActionForceChange,
		fmt.Sprintf("User %s was flagged for a forced password change", user.Username))

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "user must change password at next check"})
}
