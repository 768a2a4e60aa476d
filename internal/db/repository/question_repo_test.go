package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/question-bank/internal/question"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(ctx, sql, args)
	return a.Get(0).(pgconn.CommandTag), a.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(ctx, sql, args)
	rows, _ := a.Get(0).(pgx.Rows)
	return rows, a.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(ctx, sql, args)
	return a.Get(0).(pgx.Row)
}

// fakeRow copies values into Scan destinations by position.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

var created = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func questionRow(id string, options string) fakeRow {
	return fakeRow{values: []any{
		id, "2+2?", "multipleChoice", []byte(options), "basic sum", "math", "arithmetic",
		"easy", 5, []string{"practice"}, nil, "", created,
	}}
}

func TestQuestionRepository_Get(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)

	db.On("QueryRow", mock.Anything, mock.Anything, []any{"q1"}).
		Return(questionRow("q1", `[{"id":"1","text":"4","isCorrect":true}]`))

	got, err := repo.Get(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", got.ID)
	assert.Equal(t, question.TypeMultipleChoice, got.Type)
	assert.Equal(t, []question.Option{{ID: "1", Text: "4", IsCorrect: true}}, got.Options)
	assert.Equal(t, []string{"practice"}, got.Tags)
	assert.Nil(t, got.TrueAnswer)
	assert.Equal(t, created, got.CreatedAt)
	db.AssertExpectations(t)
}

func TestQuestionRepository_GetNotFound(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"missing"}).Return(fakeRow{err: pgx.ErrNoRows})

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, question.ErrNotFound)
}

func TestQuestionRepository_GetCorruptOptions(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("QueryRow", mock.Anything, mock.Anything, []any{"q1"}).Return(questionRow("q1", `{not json`))

	_, err := repo.Get(context.Background(), "q1")
	var corrupt *question.CorruptStoreError
	assert.ErrorAs(t, err, &corrupt)
}

func TestQuestionRepository_InsertDuplicate(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Insert(context.Background(), question.Question{ID: "q1", Type: question.TypeOpenEnded, Text: "why?"})
	assert.ErrorIs(t, err, question.ErrDuplicateID)
}

func TestQuestionRepository_InsertFailureIsPersistenceError(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection reset"))

	_, err := repo.Insert(context.Background(), question.Question{ID: "q1"})
	var pe *question.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "insert", pe.Op)
}

func TestQuestionRepository_InsertSendsEmptyTagsForNil(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		tags, ok := args[9].([]string)
		return ok && tags != nil && len(tags) == 0
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	_, err := repo.Insert(context.Background(), question.Question{ID: "q1", CreatedAt: created})
	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestQuestionRepository_ReplaceKeepsCreatedAt(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow{values: []any{created}})

	in := question.Question{ID: "q1", Text: "new", Type: question.TypeOpenEnded, CreatedAt: time.Now()}
	got, err := repo.Replace(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, "new", got.Text)
}

func TestQuestionRepository_ReplaceNotFound(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow{err: pgx.ErrNoRows})

	_, err := repo.Replace(context.Background(), question.Question{ID: "nope"})
	assert.ErrorIs(t, err, question.ErrNotFound)
}

func TestQuestionRepository_Delete(t *testing.T) {
	db := new(mockDB)
	repo := NewQuestionRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, []any{"q1"}).Return(pgconn.NewCommandTag("DELETE 1"), nil)
	db.On("Exec", mock.Anything, mock.Anything, []any{"q2"}).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	assert.NoError(t, repo.Delete(context.Background(), "q1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "q2"), question.ErrNotFound)
	db.AssertExpectations(t)
}
