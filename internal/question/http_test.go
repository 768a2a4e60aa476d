package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

func newTestMux(t *testing.T, guard Middleware) (*http.ServeMux, *Service) {
	t.Helper()
	svc, _ := newTestService(t, ServiceOptions{})
	mux := http.NewServeMux()
	NewHTTPHandler(svc, zerolog.Nop()).Register(mux, guard)
	return mux, svc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httperrors.ErrorResponse {
	t.Helper()
	var resp httperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHTTPCreateGetListDelete(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/questions", twoPlusTwo())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, "/api/questions/"+created.ID, rec.Header().Get("Location"))

	rec = doJSON(t, mux, http.MethodGet, "/api/questions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created, got)

	rec = doJSON(t, mux, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = doJSON(t, mux, http.MethodDelete, "/api/questions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Question deleted"}`, rec.Body.String())

	rec = doJSON(t, mux, http.MethodGet, "/api/questions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httperrors.ErrCodeQuestionNotFound, decodeError(t, rec).Error)
}

func TestHTTPListEmptyIsArray(t *testing.T) {
	mux, _ := newTestMux(t, nil)
	rec := doJSON(t, mux, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHTTPUpdate(t *testing.T) {
	mux, svc := newTestMux(t, nil)
	created, err := svc.Create(context.Background(), twoPlusTwo())
	require.NoError(t, err)

	edit := twoPlusTwo()
	edit.ID = "ignored"
	edit.Text = "2+3?"
	rec := doJSON(t, mux, http.MethodPut, "/api/questions/"+created.ID, edit)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "2+3?", updated.Text)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	rec = doJSON(t, mux, http.MethodPut, "/api/questions/missing", edit)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPBadRequests(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/questions", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httperrors.ErrCodeInvalidRequest, decodeError(t, rec).Error)

	rec = doJSON(t, mux, http.MethodPost, "/api/questions", `{"text":"x","type":"essay"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, httperrors.ErrCodeValidationFailed, resp.Error)
	assert.Equal(t, "type", resp.Field)

	rec = doJSON(t, mux, http.MethodDelete, "/api/questions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPGuardWrapsOnlyWrites(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		})
	}
	mux, _ := newTestMux(t, deny)

	assert.Equal(t, http.StatusOK, doJSON(t, mux, http.MethodGet, "/api/questions", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, mux, http.MethodPost, "/api/questions", twoPlusTwo()).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, mux, http.MethodPut, "/api/questions/x", twoPlusTwo()).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, mux, http.MethodDelete, "/api/questions/x", nil).Code)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", ErrNotFound, http.StatusNotFound, httperrors.ErrCodeQuestionNotFound},
		{"duplicate", ErrDuplicateID, http.StatusConflict, httperrors.ErrCodeAlreadyExists},
		{"validation", &ValidationError{Field: "text", Message: "text is required"}, http.StatusBadRequest, httperrors.ErrCodeValidationFailed},
		{"corrupt", &CorruptStoreError{Path: "q.json", Err: errors.New("bad")}, http.StatusInternalServerError, httperrors.ErrCodeStoreCorrupt},
		{"persistence", &PersistenceError{Op: "rename", Path: "q.json", Err: errors.New("disk full")}, http.StatusInternalServerError, httperrors.ErrCodeStorageError},
		{"closed", ErrStoreClosed, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, httperrors.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, zerolog.Nop(), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

func TestHTTPCreatedAtRoundTripsExactly(t *testing.T) {
	svc, _ := newTestService(t, ServiceOptions{Clock: func() time.Time {
		return time.Date(2024, 6, 10, 10, 30, 0, 987654321, time.UTC)
	}})
	mux := http.NewServeMux()
	NewHTTPHandler(svc, zerolog.Nop()).Register(mux, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/questions", twoPlusTwo())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"createdAt":"2024-06-10T10:30:00.987Z"`)
}
