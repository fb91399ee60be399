package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Users

// UpsertUser inserts a user on first sight of a Google subject id, or
// refreshes display name, picture and last_login on every subsequent
// login. One statement, so two devices authenticating the same subject
// concurrently cannot create duplicate rows.
func (r *Repository) UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	query := `
		INSERT INTO users (google_id, email, display_name, picture)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (google_id)
		DO UPDATE SET
			last_login = NOW(),
			display_name = EXCLUDED.display_name,
			picture = EXCLUDED.picture
		RETURNING id, google_id, email, display_name, picture, created_at, last_login
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query,
		identity.SubjectID, identity.Email, identity.DisplayName, identity.Picture,
	).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.DisplayName,
		&user.Picture, &user.CreatedAt, &user.LastLogin,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetUser retrieves a user by local id
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, google_id, email, display_name, picture, created_at, last_login
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.DisplayName,
		&user.Picture, &user.CreatedAt, &user.LastLogin,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
