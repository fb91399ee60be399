package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewRepository(&DB{Pool: mock}), mock
}

func TestUpsertUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()
	ctx := context.Background()

	now := time.Now()
	identity := models.Identity{
		SubjectID:   "google-sub-1",
		Email:       "user@example.com",
		DisplayName: "Test User",
		Picture:     "https://example.com/p.png",
	}

	mock.ExpectQuery(`INSERT INTO users \(google_id, email, display_name, picture\)`).
		WithArgs(identity.SubjectID, identity.Email, identity.DisplayName, identity.Picture).
		WillReturnRows(pgxmock.NewRows([]string{"id", "google_id", "email", "display_name", "picture", "created_at", "last_login"}).
			AddRow("user-1", identity.SubjectID, identity.Email, identity.DisplayName, identity.Picture, now, now))

	user, err := repo.UpsertUser(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, identity.Email, user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, google_id, email, display_name, picture, created_at, last_login`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreatePrompt(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	prompt := &models.Prompt{
		UserID:          "user-1",
		RawPrompt:       "make this better",
		OptimizedPrompt: "a much better prompt",
		TokensUsed:      42,
		Category:        models.CategoryGeneral,
	}

	mock.ExpectQuery(`INSERT INTO prompts`).
		WithArgs(pgxmock.AnyArg(), prompt.UserID, prompt.RawPrompt, prompt.OptimizedPrompt, prompt.TokensUsed, prompt.Category).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	err := repo.CreatePrompt(context.Background(), prompt)
	require.NoError(t, err)
	require.NotEmpty(t, prompt.ID)
	require.False(t, prompt.CreatedAt.IsZero())
}

func TestGetPromptScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	// Foreign owner: the query matches nothing, which reads as not-found.
	mock.ExpectQuery(`SELECT id, user_id, raw_prompt, optimized_prompt, tokens_used, optimization_type, created_at`).
		WithArgs("prompt-1", "other-user").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetPrompt(context.Background(), "prompt-1", "other-user")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeletePromptNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM prompts WHERE id = \$1 AND user_id = \$2`).
		WithArgs("prompt-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeletePrompt(context.Background(), "prompt-1", "user-1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeletePrompt(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM prompts WHERE id = \$1 AND user_id = \$2`).
		WithArgs("prompt-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.DeletePrompt(context.Background(), "prompt-1", "user-1")
	require.NoError(t, err)
}

func TestListPrompts(t *testing.T) {
	repo, mock := newMockRepo(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prompts WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`SELECT id, user_id, raw_prompt, optimized_prompt, tokens_used, optimization_type, created_at`).
		WithArgs("user-1", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "raw_prompt", "optimized_prompt", "tokens_used", "optimization_type", "created_at"}).
			AddRow("p2", "user-1", "raw2", "opt2", 20, models.CategoryCoding, now).
			AddRow("p1", "user-1", "raw1", "opt1", 10, models.CategoryGeneral, now.Add(-time.Hour)))

	prompts, total, err := repo.ListPrompts(context.Background(), "user-1", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, prompts, 2)
	require.Equal(t, "p2", prompts[0].ID)
}
