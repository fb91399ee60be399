package main

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/internal/metrics"
	"github.com/promptpilot/promptpilot/internal/middleware"
	"github.com/promptpilot/promptpilot/internal/optimizer"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// Repository defines the persistence operations the handlers need
type Repository interface {
	UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error)
	GetPrompt(ctx context.Context, id, userID string) (*models.Prompt, error)
	ListPrompts(ctx context.Context, userID string, limit, offset int) ([]*models.Prompt, int, error)
	DeletePrompt(ctx context.Context, id, userID string) error
	Health(ctx context.Context) error
}

// Optimizer defines the optimization pipeline operations
type Optimizer interface {
	Optimize(ctx context.Context, userID, text, category string) (*optimizer.Result, error)
	Usage(ctx context.Context, userID string) (*models.Usage, error)
}

// Verifier defines the identity provider token verification
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*models.Identity, error)
}

// API holds the handler dependencies
type API struct {
	repo      Repository
	optimizer Optimizer
	verifier  Verifier
	cfg       *apiConfig
	started   time.Time
}

// apiConfig is the slice of configuration the handlers care about.
type apiConfig struct {
	Environment   string
	TokenLifetime time.Duration
}

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// POST /auth/exchange
func (api *API) exchangeCredential(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.IDToken == "" {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "idToken is required in request body.")
		return
	}

	identity, err := api.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIAL", "Identity token verification failed.")
		return
	}

	user, err := api.repo.UpsertUser(c.Request.Context(), *identity)
	if err != nil {
		api.internalError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, api.cfg.TokenLifetime)
	if err != nil {
		api.internalError(c, err)
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// POST /api/optimize
func (api *API) optimize(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required.")
		return
	}

	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Request body must be valid JSON.")
		return
	}

	result, err := api.optimizer.Optimize(c.Request.Context(), userID, req.Text, req.Category)
	if err != nil {
		api.optimizeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prompt_id":          result.PromptID,
		"optimized_prompt":   result.OptimizedPrompt,
		"tokens_used":        result.TokensUsed,
		"category":           result.Category,
		"remaining_requests": result.Remaining,
	})
}

func (api *API) optimizeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, errs.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "QUOTA_EXCEEDED",
				"message": "Daily optimization limit reached.",
			},
			"remaining_requests": 0,
			"resets_at":          models.NextUTCMidnight(time.Now()).Format(time.RFC3339),
		})
	case errors.Is(err, errs.ErrProvider):
		respondError(c, http.StatusBadGateway, "PROVIDER_ERROR", "The optimization provider failed to produce a result.")
	case errors.Is(err, errs.ErrPersistence):
		respondError(c, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to store the optimization result.")
	default:
		api.internalError(c, err)
	}
}

// GET /api/usage
func (api *API) usage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required.")
		return
	}

	usage, err := api.optimizer.Usage(c.Request.Context(), userID)
	if err != nil {
		api.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"used_today":      usage.UsedToday,
		"remaining_today": usage.RemainingToday,
		"ceiling":         usage.Ceiling,
		"resets_at":       usage.ResetsAt.Format(time.RFC3339),
	})
}

// GET /api/history
func (api *API) listHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required.")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	prompts, total, err := api.repo.ListPrompts(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		api.internalError(c, err)
		return
	}

	if prompts == nil {
		prompts = []*models.Prompt{}
	}

	totalPages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, gin.H{
		"prompts": prompts,
		"pagination": gin.H{
			"total_count":   total,
			"current_page":  page,
			"total_pages":   totalPages,
			"has_next_page": page < totalPages,
			"has_prev_page": page > 1,
		},
	})
}

// GET /api/history/:id
func (api *API) getHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required.")
		return
	}

	id := c.Param("id")
	if !uuidRegex.MatchString(id) {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid prompt id format. Must be a valid UUID.")
		return
	}

	prompt, err := api.repo.GetPrompt(c.Request.Context(), id, userID)
	if errors.Is(err, errs.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Prompt not found.")
		return
	}
	if err != nil {
		api.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

// DELETE /api/history/:id
func (api *API) deleteHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required.")
		return
	}

	id := c.Param("id")
	if !uuidRegex.MatchString(id) {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid prompt id format. Must be a valid UUID.")
		return
	}

	err := api.repo.DeletePrompt(c.Request.Context(), id, userID)
	if errors.Is(err, errs.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Prompt not found.")
		return
	}
	if err != nil {
		api.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

// GET /health
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := api.repo.Health(ctx); err != nil {
		dbStatus = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": api.cfg.Environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(api.started).String(),
		"database":    dbStatus,
	})
}

func (api *API) internalError(c *gin.Context, err error) {
	body := gin.H{"code": "INTERNAL_ERROR", "message": "Internal server error"}
	if api.cfg.Environment == "development" {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": body})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
