package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := map[ErrorType]int{
		NotFoundError:        http.StatusNotFound,
		ValidationError:      http.StatusBadRequest,
		BadRequestError:      http.StatusBadRequest,
		AuthError:            http.StatusUnauthorized,
		UnauthorizedError:    http.StatusForbidden,
		ConflictError:        http.StatusConflict,
		DatabaseError:        http.StatusInternalServerError,
		ExternalServiceError: http.StatusBadGateway,
		UnknownError:         http.StatusInternalServerError,
	}
	for typ, want := range cases {
		assert.Equal(t, want, NewAppError(typ, "x", nil).StatusCode(), typ.String())
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError("failed to load post", cause)

	assert.Equal(t, "failed to load post: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorResponse{Error: "failed to load post"}, err.ToResponse())
}

func TestFromErrorFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("toggle: %w", NewNotFoundError("post not found", nil))

	ae, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, NotFoundError, ae.Type)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflictError(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}
