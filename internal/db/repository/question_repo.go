package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gokatarajesh/question-bank/internal/question"
)

const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionRepository stores questions in Postgres, one row per record.
// The seq column preserves insertion order for List.
type QuestionRepository struct {
	db DBTX
}

var _ question.Store = (*QuestionRepository)(nil)

// NewQuestionRepository wraps db (usually a *pgxpool.Pool owned by the caller).
func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, text, type, options, explanation, category, subcategory,
	difficulty, points, tags, true_answer, model_answer, created_at`

// List returns all questions in insertion order.
func (r *QuestionRepository) List(ctx context.Context) ([]question.Question, error) {
	rows, err := r.db.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY seq`)
	if err != nil {
		return nil, &question.PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	out := make([]question.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &question.PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

// Get fetches one question by id.
func (r *QuestionRepository) Get(ctx context.Context, id string) (question.Question, error) {
	row := r.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return question.Question{}, question.ErrNotFound
	}
	return q, err
}

// Insert stores q with its pre-assigned id and creation time.
func (r *QuestionRepository) Insert(ctx context.Context, q question.Question) (question.Question, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return question.Question{}, &question.PersistenceError{Op: "encode options", Err: err}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO questions (id, text, type, options, explanation, category, subcategory,
			difficulty, points, tags, true_answer, model_answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, q.ID, q.Text, string(q.Type), opts, q.Explanation, q.Category, q.Subcategory,
		q.Difficulty, q.Points, tagsParam(q.Tags), q.TrueAnswer, q.ModelAnswer, q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return question.Question{}, question.ErrDuplicateID
		}
		return question.Question{}, &question.PersistenceError{Op: "insert", Err: err}
	}
	return q, nil
}

// Replace overwrites every column except created_at, which is returned from the row.
func (r *QuestionRepository) Replace(ctx context.Context, q question.Question) (question.Question, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return question.Question{}, &question.PersistenceError{Op: "encode options", Err: err}
	}

	var createdAt time.Time
	err = r.db.QueryRow(ctx, `
		UPDATE questions
		SET text = $2, type = $3, options = $4, explanation = $5, category = $6, subcategory = $7,
			difficulty = $8, points = $9, tags = $10, true_answer = $11, model_answer = $12
		WHERE id = $1
		RETURNING created_at
	`, q.ID, q.Text, string(q.Type), opts, q.Explanation, q.Category, q.Subcategory,
		q.Difficulty, q.Points, tagsParam(q.Tags), q.TrueAnswer, q.ModelAnswer).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, &question.PersistenceError{Op: "update", Err: err}
	}
	q.CreatedAt = createdAt.UTC()
	return q, nil
}

// Delete removes the row with id.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return &question.PersistenceError{Op: "delete", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return question.ErrNotFound
	}
	return nil
}

// Close is a no-op; the pool belongs to the application.
func (r *QuestionRepository) Close() error { return nil }

// tagsParam keeps nil slices from being encoded as SQL NULL.
func tagsParam(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func scanQuestion(row pgx.Row) (question.Question, error) {
	var (
		q         question.Question
		qType     string
		opts      []byte
		createdAt time.Time
	)
	err := row.Scan(&q.ID, &q.Text, &qType, &opts, &q.Explanation, &q.Category, &q.Subcategory,
		&q.Difficulty, &q.Points, &q.Tags, &q.TrueAnswer, &q.ModelAnswer, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, err
		}
		return question.Question{}, &question.PersistenceError{Op: "scan", Err: err}
	}

	q.Type = question.Type(qType)
	q.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal(opts, &q.Options); err != nil {
		return question.Question{}, &question.CorruptStoreError{Path: "questions." + q.ID, Err: fmt.Errorf("options: %w", err)}
	}
	if q.Options == nil {
		q.Options = []question.Option{}
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q, nil
}
