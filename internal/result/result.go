package result

import "fmt"

type Category string

const (
	Validation    Category = "validation"
	Unavailable   Category = "unavailable"
	ModelResponse Category = "model_response"
	Persistence   Category = "persistence"
	NotFound      Category = "not_found"
	Internal      Category = "internal"
)

type ErrorDetail struct {
	Category Category
	Message  string
	Cause    error
}

func NewError(category Category, format string, args ...any) ErrorDetail {
	return ErrorDetail{Category: category, Message: fmt.Sprintf(format, args...)}
}

func Wrap(category Category, cause error, format string, args ...any) ErrorDetail {
	return ErrorDetail{Category: category, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e ErrorDetail) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ErrorDetail) Unwrap() error {
	return e.Cause
}

// Result is either a value or a non-empty list of errors.
type Result[T any] struct {
	value  T
	errors []ErrorDetail
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Err[T any](errors ...ErrorDetail) Result[T] {
	if len(errors) == 0 {
		errors = []ErrorDetail{NewError(Internal, "unknown error")}
	}
	return Result[T]{errors: errors}
}

func (r Result[T]) HasErrors() bool {
	return len(r.errors) > 0
}

// Value returns the payload. The zero value is returned when the result
// carries errors.
func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Errors() []ErrorDetail {
	return r.errors
}

func (r Result[T]) Messages() []string {
	messages := make([]string, 0, len(r.errors))
	for _, e := range r.errors {
		messages = append(messages, e.Message)
	}
	return messages
}

// Concat joins the error lists of several results, preserving order.
func Concat(lists ...[]ErrorDetail) []ErrorDetail {
	var all []ErrorDetail
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

// Recast carries the errors of r over to a result of another payload type.
func Recast[T any, U any](r Result[U]) Result[T] {
	return Err[T](r.errors...)
}
