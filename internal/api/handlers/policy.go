package handlers

import (
	"net/http"

	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/models"
	"passguard/internal/policy"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
)

// PolicyHandler handles dry-run password validation requests
type PolicyHandler struct {
	pipeline    *policy.Pipeline
	historyRepo repository.PasswordHistoryRepository
	config      *config.Config
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(pipeline *policy.Pipeline, historyRepo repository.PasswordHistoryRepository, config *config.Config) *PolicyHandler {
	return &PolicyHandler{
		pipeline:    pipeline,
		historyRepo: historyRepo,
		config:      config,
	}
}

// ValidatePasswordResponse is the outcome of a dry-run validation
type ValidatePasswordResponse struct {
	Valid      bool               `json:"valid"`
	Violations []policy.Violation `json:"violations"`
}

// ValidatePassword godoc
// @Summary Validate a password against the policy
// @Description Dry-run every policy check against a candidate password without storing anything. When authenticated, identity and history checks use the caller's data.
// @Tags policy
// @Accept json
// @Produce json
// @Param request body models.ValidatePasswordRequest true "Candidate password"
// @Success 200 {object} handlers.ValidatePasswordResponse "Validation outcome with all violations"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/password/validate [post]
func (h *PolicyHandler) ValidatePassword(c *gin.Context) {
	var req models.ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	policyCtx := policy.Context{Password: req.Password}

	if user := auth.GetUserFromContext(c); user != nil {
		policyCtx.Username = user.Username
		if user.Email != nil {
			policyCtx.Email = *user.Email
		}
		history, err := h.historyRepo.Recent(c.Request.Context(), user.ID, h.config.Policy.HistoryCount)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load password history"})
			return
		}
		policyCtx.PreviousHashes = historyHashes(history)
	}

	violations := h.pipeline.Validate(policyCtx)
	if violations == nil {
		violations = []policy.Violation{}
	}

	c.JSON(http.StatusOK, ValidatePasswordResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}
