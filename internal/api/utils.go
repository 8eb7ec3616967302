package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"chat-gateway/internal/proxy"
	"chat-gateway/internal/result"
	"chat-gateway/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
)

const internalErrorMessage = "internal server error"

var exposeInternalErrors atomic.Bool

// ExposeInternalErrors controls whether the message of a 500 reaches the
// client. It is only meant to be enabled in development.
func ExposeInternalErrors(expose bool) {
	exposeInternalErrors.Store(expose)
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// resultError carries every error of a failed result to the response.
type resultError struct {
	details []result.ErrorDetail
}

func (e *resultError) Error() string {
	return errors.Join(e.Unwrap()...).Error()
}

func (e *resultError) Unwrap() []error {
	errs := make([]error, 0, len(e.details))
	for _, d := range e.details {
		errs = append(errs, d)
	}
	return errs
}

// FromResult converts a result into the (value, error) pair returned by
// handlers.
func FromResult[T any](res result.Result[T]) (any, error) {
	if res.HasErrors() {
		return nil, &resultError{details: res.Errors()}
	}
	return res.Value(), nil
}

func categoryStatus(category result.Category) (int, bool) {
	switch category {
	case result.Validation, result.ModelResponse, result.Unavailable, result.Persistence:
		return http.StatusBadRequest, true
	case result.NotFound:
		return http.StatusNotFound, true
	}
	return 0, false
}

// causeStatus maps errors that are not otherwise classified to a status.
func causeStatus(err error) int {
	var upstream *proxy.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.As(err, &upstream):
		if upstream.StatusCode >= 400 {
			return upstream.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func StatusCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}

	var rerr *resultError
	if errors.As(err, &rerr) && len(rerr.details) > 0 {
		first := rerr.details[0]
		if code, ok := categoryStatus(first.Category); ok {
			return code
		}
		if first.Cause != nil {
			return causeStatus(first.Cause)
		}
		return http.StatusInternalServerError
	}

	return causeStatus(err)
}

// errorMessages lists the messages of a failed result. Causes are store and
// transport errors and stay in the logs unless internal errors are exposed.
func errorMessages(err error) []string {
	var rerr *resultError
	if errors.As(err, &rerr) {
		expose := exposeInternalErrors.Load()
		messages := make([]string, 0, len(rerr.details))
		for _, d := range rerr.details {
			if expose {
				messages = append(messages, d.Error())
			} else {
				messages = append(messages, d.Message)
			}
		}
		return messages
	}
	return []string{err.Error()}
}

func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Error("error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}
	return data, nil
}

func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&data, r.Form); err != nil {
		slog.Error("error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	return data, nil
}

// RestHandler wraps every response in an api.Envelope whose instance is the
// request path.
func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code := StatusCode(err)
			messages := errorMessages(err)
			if code == http.StatusInternalServerError {
				slog.Error("internal server error received in endpoint", "path", r.URL.Path, "error", err)
				if !exposeInternalErrors.Load() {
					messages = []string{internalErrorMessage}
				}
			} else {
				slog.Warn("request failed", "path", r.URL.Path, "status", code, "error", err)
			}
			WriteJsonResponse(w, code, api.Envelope{Status: code, Instance: r.URL.Path, Errors: messages})
			return
		}

		if res == nil {
			res = struct{}{}
		}

		WriteJsonResponse(w, http.StatusOK, api.Envelope{Status: http.StatusOK, Instance: r.URL.Path, Result: res})
	}
}

func WriteJsonResponse(w http.ResponseWriter, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Error("error writing response body", "error", err)
	}
}

func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)

	if len(param) == 0 {
		return uuid.Nil, CodedErrorf(http.StatusBadRequest, "missing {%v} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, CodedErrorf(http.StatusBadRequest, "invalid uuid '%v' url parameter provided: %v", key, err)
	}

	return id, nil
}
