package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	backend "chat-gateway/internal/api"
	"chat-gateway/internal/database"
	"chat-gateway/internal/proxy"
	"chat-gateway/internal/result"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope[T any] struct {
	Status   int      `json:"status"`
	Instance string   `json:"instance"`
	Errors   []string `json:"errors"`
	Result   T        `json:"result"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	assert.Equal(t, rec.Code, out.Status)
	return out
}

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.ConfigureSqlite(db))

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"coded", backend.CodedErrorf(http.StatusConflict, "conflict"), http.StatusConflict},
		{"invalid argument", fmt.Errorf("%w: limit", backend.ErrInvalidArgument), http.StatusBadRequest},
		{"invalid operation", backend.ErrInvalidOperation, http.StatusBadRequest},
		{"not found", fmt.Errorf("session 1 %w", backend.ErrNotFound), http.StatusNotFound},
		{"forbidden", backend.ErrForbidden, http.StatusForbidden},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusRequestTimeout},
		{"upstream", &proxy.UpstreamError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"upstream without status", &proxy.UpstreamError{}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, backend.StatusCode(tc.err))
		})
	}
}

func TestStatusCodeFromResult(t *testing.T) {
	tests := []struct {
		name   string
		detail result.ErrorDetail
		code   int
	}{
		{"validation", result.NewError(result.Validation, "bad"), http.StatusBadRequest},
		{"model response", result.NewError(result.ModelResponse, "bad"), http.StatusBadRequest},
		{"unavailable", result.NewError(result.Unavailable, "down"), http.StatusBadRequest},
		{"persistence", result.NewError(result.Persistence, "failed"), http.StatusBadRequest},
		{"not found", result.NewError(result.NotFound, "missing"), http.StatusNotFound},
		{"internal timeout", result.Wrap(result.Internal, context.DeadlineExceeded, "slow"), http.StatusRequestTimeout},
		{"internal upstream", result.Wrap(result.Internal, &proxy.UpstreamError{StatusCode: 503}, "down"), http.StatusServiceUnavailable},
		{"internal", result.NewError(result.Internal, "boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := backend.FromResult(result.Err[bool](tc.detail))
			assert.Equal(t, tc.code, backend.StatusCode(err))
		})
	}
}

func TestRestHandlerEnvelope(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/ok", backend.RestHandler(func(r *http.Request) (any, error) {
		return map[string]int{"value": 1}, nil
	}))
	router.Get("/empty", backend.RestHandler(func(r *http.Request) (any, error) {
		return nil, nil
	}))
	router.Get("/fail", backend.RestHandler(func(r *http.Request) (any, error) {
		return backend.FromResult(result.Err[bool](
			result.NewError(result.Validation, "first"),
			result.NewError(result.Validation, "second"),
		))
	}))
	router.Get("/internal", backend.RestHandler(func(r *http.Request) (any, error) {
		return nil, errors.New("database password is hunter2")
	}))
	router.Get("/lookup", backend.RestHandler(func(r *http.Request) (any, error) {
		storeErr := result.Wrap(result.Persistence, errors.New("database is locked"), "failed to get Conversation")
		return backend.FromResult(result.Err[bool](result.Wrap(result.Internal, storeErr, "unable to load conversation")))
	}))
	router.Get("/store", backend.RestHandler(func(r *http.Request) (any, error) {
		return backend.FromResult(result.Err[bool](
			result.Wrap(result.Persistence, errors.New("no such table: answers"), "failed to save Answer"),
		))
	}))

	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		out := decode[map[string]int](t, rec)
		assert.Equal(t, "/ok", out.Instance)
		assert.Empty(t, out.Errors)
		assert.Equal(t, 1, out.Result["value"])
	})

	t.Run("empty", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":200,"instance":"/empty","result":{}}`, rec.Body.String())
	})

	t.Run("all errors reported", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		out := decode[any](t, rec)
		assert.Equal(t, []string{"first", "second"}, out.Errors)
		assert.Nil(t, out.Result)
	})

	t.Run("internal errors redacted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, []string{"internal server error"}, decode[any](t, rec).Errors)
	})

	t.Run("internal errors exposed in development", func(t *testing.T) {
		backend.ExposeInternalErrors(true)
		defer backend.ExposeInternalErrors(false)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal", nil))
		assert.Equal(t, []string{"database password is hunter2"}, decode[any](t, rec).Errors)
	})

	t.Run("store causes withheld", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"failed to save Answer"}, decode[any](t, rec).Errors)
	})

	t.Run("store lookup failures are internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, []string{"internal server error"}, decode[any](t, rec).Errors)
	})

	t.Run("store causes exposed in development", func(t *testing.T) {
		backend.ExposeInternalErrors(true)
		defer backend.ExposeInternalErrors(false)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store", nil))
		assert.Equal(t, []string{"failed to save Answer: no such table: answers"}, decode[any](t, rec).Errors)
	})
}
