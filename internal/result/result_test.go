package result_test

import (
	"errors"
	"testing"

	"chat-gateway/internal/result"

	"github.com/stretchr/testify/assert"
)

func TestOkHasNoErrors(t *testing.T) {
	r := result.Ok(42)
	assert.False(t, r.HasErrors())
	assert.Equal(t, 42, r.Value())
	assert.Empty(t, r.Messages())
}

func TestErrDropsValue(t *testing.T) {
	r := result.Err[*int](result.NewError(result.Validation, "bad %s", "input"))
	assert.True(t, r.HasErrors())
	assert.Nil(t, r.Value())
	assert.Equal(t, []string{"bad input"}, r.Messages())
	assert.Equal(t, result.Validation, r.Errors()[0].Category)
}

func TestErrWithoutDetailsStillFails(t *testing.T) {
	r := result.Err[bool]()
	assert.True(t, r.HasErrors())
}

func TestErrorDetailUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	detail := result.Wrap(result.Persistence, cause, "failed to save %s", "Session")

	assert.ErrorIs(t, detail, cause)
	assert.Equal(t, "failed to save Session: connection refused", detail.Error())
}

func TestConcatAndRecast(t *testing.T) {
	a := []result.ErrorDetail{result.NewError(result.Validation, "a")}
	b := []result.ErrorDetail{result.NewError(result.Persistence, "b")}

	r := result.Err[bool](result.Concat(a, nil, b)...)
	assert.Equal(t, []string{"a", "b"}, r.Messages())

	recast := result.Recast[string](r)
	assert.Equal(t, []string{"a", "b"}, recast.Messages())
	assert.Equal(t, "", recast.Value())
}
