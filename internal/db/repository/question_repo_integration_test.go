//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/question-bank/internal/db/migrations"
	"github.com/gokatarajesh/question-bank/internal/question"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))
	_, err = db.Exec(`TRUNCATE questions`)
	require.NoError(t, err)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestQuestionRepository_RoundTrip(t *testing.T) {
	pool := openTestPool(t)
	repo := NewQuestionRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := question.Question{
		ID:   "a",
		Text: "2+2?",
		Type: question.TypeMultipleChoice,
		Options: []question.Option{
			{ID: "1", Text: "4", IsCorrect: true},
			{ID: "2", Text: "5"},
		},
		Tags:      []string{"math"},
		CreatedAt: now,
	}
	second := question.Question{ID: "b", Text: "Explain", Type: question.TypeOpenEnded, Options: []question.Option{}, Tags: []string{}, CreatedAt: now}

	_, err := repo.Insert(ctx, first)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, second)
	require.NoError(t, err)

	_, err = repo.Insert(ctx, first)
	assert.ErrorIs(t, err, question.ErrDuplicateID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0])
	assert.Equal(t, second, all[1])

	first.Text = "3+3?"
	first.CreatedAt = now.Add(time.Hour)
	updated, err := repo.Replace(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, now, updated.CreatedAt)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, question.ErrNotFound)
}
