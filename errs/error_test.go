package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(Errorf(ENOTFOUND, "The tweet does not exist.")))
	assert.Equal(t, EFORBIDDEN, ErrorCode(fmt.Errorf("wrapped: %w", Errorf(EFORBIDDEN, "no"))))
	assert.Equal(t, EINVALID, ErrorCode(ContentTooShort))
	assert.Equal(t, EFORBIDDEN, ErrorCode(NotOwner))
	assert.Equal(t, EUNAUTHORIZED, ErrorCode(TokenInvalid))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Content must not be empty.", ErrorMessage(ContentTooShort))
	assert.Equal(t, "Internal error.", ErrorMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "Video not found.", ErrorMessage(Errorf(ENOTFOUND, "Video not found.")))
}

func TestReturnError(t *testing.T) {
	t.Run("Forbidden envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/tweets/1", nil)
		ReturnError(w, r, NotOwner)

		assert.Equal(t, http.StatusForbidden, w.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.NotNil(t, resp.Errors)
		assert.Empty(t, resp.Errors)
	})

	t.Run("Internal errors hide details", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/videos", nil)
		ReturnError(w, r, errors.New("dial tcp: refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "dial tcp")
	})

	t.Run("Details are passed through", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/users/register", nil)
		ReturnError(w, r, Errorf(EINVALID, "All fields are required."), "email is required")

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"email is required"}, resp.Errors)
	})
}

func TestStatusCode(t *testing.T) {
	tests := map[string]int{
		EINVALID:      http.StatusBadRequest,
		EUNAUTHORIZED: http.StatusUnauthorized,
		EFORBIDDEN:    http.StatusForbidden,
		ENOTFOUND:     http.StatusNotFound,
		ECONFLICT:     http.StatusConflict,
		ETOOMANY:      http.StatusTooManyRequests,
		EINTERNAL:     http.StatusInternalServerError,
		"unknown":     http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusCode(code), code)
	}
}
