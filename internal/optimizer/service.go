// Package optimizer orchestrates the quota-enforced optimization pipeline.
package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/internal/metrics"
	"github.com/promptpilot/promptpilot/internal/provider"
	"github.com/promptpilot/promptpilot/internal/tracing"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// Provider defines the interface for the external generation provider
type Provider interface {
	Optimize(ctx context.Context, rawPrompt, category string) (*provider.Result, error)
}

// Ledger defines the interface for quota admission
type Ledger interface {
	Reserve(ctx context.Context, userID string) (*models.Reservation, error)
	Peek(ctx context.Context, userID string) (*models.Usage, error)
}

// Store defines the interface for result persistence
type Store interface {
	CreatePrompt(ctx context.Context, prompt *models.Prompt) error
}

// Result is the outcome of a successful optimization
type Result struct {
	PromptID        string
	OptimizedPrompt string
	TokensUsed      int
	Category        string
	Remaining       int
}

// Service runs one optimization request through admission, the
// provider call and persistence.
type Service struct {
	store    Store
	ledger   Ledger
	provider Provider
	log      *logging.Logger
}

// NewService creates an optimization service
func NewService(store Store, ledger Ledger, prov Provider, log *logging.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		provider: prov,
		log:      log,
	}
}

// Optimize processes one request: validate, reserve a quota slot,
// invoke the provider, persist the record. Validation failures consume
// nothing. Once a slot is reserved it stays consumed even when the
// provider call or persistence fails afterwards; a retried request
// draws a fresh slot.
func (s *Service) Optimize(ctx context.Context, userID, text, category string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: text is required and must be a non-empty string", errs.ErrInvalidInput)
	}

	if category == "" {
		category = models.CategoryGeneral
	}
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("%w: invalid category %q, must be one of: %s",
			errs.ErrInvalidInput, category, strings.Join(models.Categories, ", "))
	}

	// A client disconnect must not abort an issued pipeline: the slot is
	// consumed at reservation, so the provider call and persistence run
	// to completion, bounded by the provider client's own timeout.
	ctx = context.WithoutCancel(ctx)

	span, ctx := tracing.StartSpan(ctx, "optimizer.reserve")
	reservation, err := s.ledger.Reserve(ctx, userID)
	tracing.FinishSpan(span)
	if err != nil {
		return nil, fmt.Errorf("quota admission failed: %w", err)
	}

	s.log.LogQuotaDecision(userID, reservation.Admitted, reservation.UsedToday, reservation.Remaining)

	if !reservation.Admitted {
		metrics.QuotaReservationsTotal.WithLabelValues("rejected").Inc()
		metrics.OptimizationsTotal.WithLabelValues(category, "quota_exceeded").Inc()
		return nil, fmt.Errorf("%w: daily optimization limit reached", errs.ErrQuotaExceeded)
	}
	metrics.QuotaReservationsTotal.WithLabelValues("admitted").Inc()

	span, ctx = tracing.StartSpan(ctx, "optimizer.provider")
	start := time.Now()
	result, err := s.provider.Optimize(ctx, trimmed, category)
	elapsed := time.Since(start)
	tracing.LogError(span, err)
	tracing.FinishSpan(span)

	metrics.ProviderCallDuration.Observe(elapsed.Seconds())
	if err != nil {
		// The reserved slot stays consumed even though no result was
		// produced: quota is fail-closed, never refunded.
		s.log.LogProviderCall(category, 0, elapsed, err)
		metrics.OptimizationsTotal.WithLabelValues(category, "provider_error").Inc()
		return nil, err
	}
	s.log.LogProviderCall(category, result.TokensUsed, elapsed, nil)
	metrics.ProviderTokensUsed.Add(float64(result.TokensUsed))

	prompt := &models.Prompt{
		UserID:          userID,
		RawPrompt:       trimmed,
		OptimizedPrompt: result.OptimizedPrompt,
		TokensUsed:      result.TokensUsed,
		Category:        category,
	}

	span, ctx = tracing.StartSpan(ctx, "optimizer.persist")
	err = s.store.CreatePrompt(ctx, prompt)
	tracing.LogError(span, err)
	tracing.FinishSpan(span)
	if err != nil {
		// Same trade-off as above: slot consumed, result lost.
		metrics.OptimizationsTotal.WithLabelValues(category, "persistence_error").Inc()
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	metrics.OptimizationsTotal.WithLabelValues(category, "success").Inc()

	return &Result{
		PromptID:        prompt.ID,
		OptimizedPrompt: result.OptimizedPrompt,
		TokensUsed:      result.TokensUsed,
		Category:        category,
		Remaining:       reservation.Remaining,
	}, nil
}

// Usage reports the caller's quota position without consuming anything.
func (s *Service) Usage(ctx context.Context, userID string) (*models.Usage, error) {
	return s.ledger.Peek(ctx, userID)
}
