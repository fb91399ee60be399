package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// Prompts

// CreatePrompt creates a new prompt record
func (r *Repository) CreatePrompt(ctx context.Context, prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}

	query := `
		INSERT INTO prompts (id, user_id, raw_prompt, optimized_prompt, tokens_used, optimization_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		prompt.ID, prompt.UserID, prompt.RawPrompt, prompt.OptimizedPrompt,
		prompt.TokensUsed, prompt.Category,
	).Scan(&prompt.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}

	return nil
}

// GetPrompt retrieves a prompt by id, scoped to its owner. A valid id
// belonging to another user reports not-found, never the record.
func (r *Repository) GetPrompt(ctx context.Context, id, userID string) (*models.Prompt, error) {
	query := `
		SELECT id, user_id, raw_prompt, optimized_prompt, tokens_used, optimization_type, created_at
		FROM prompts
		WHERE id = $1 AND user_id = $2
	`

	var prompt models.Prompt
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&prompt.ID, &prompt.UserID, &prompt.RawPrompt, &prompt.OptimizedPrompt,
		&prompt.TokensUsed, &prompt.Category, &prompt.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	return &prompt, nil
}

// ListPrompts retrieves a user's prompts with pagination, newest first,
// along with the user's total prompt count.
func (r *Repository) ListPrompts(ctx context.Context, userID string, limit, offset int) ([]*models.Prompt, int, error) {
	countQuery := `SELECT COUNT(*) FROM prompts WHERE user_id = $1`

	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prompts: %w", err)
	}

	query := `
		SELECT id, user_id, raw_prompt, optimized_prompt, tokens_used, optimization_type, created_at
		FROM prompts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*models.Prompt
	for rows.Next() {
		var prompt models.Prompt
		err := rows.Scan(
			&prompt.ID, &prompt.UserID, &prompt.RawPrompt, &prompt.OptimizedPrompt,
			&prompt.TokensUsed, &prompt.Category, &prompt.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, &prompt)
	}

	return prompts, total, nil
}

// DeletePrompt deletes a prompt by id, scoped to its owner. Deleting a
// missing or foreign record reports not-found.
func (r *Repository) DeletePrompt(ctx context.Context, id, userID string) error {
	query := `DELETE FROM prompts WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return nil
}
