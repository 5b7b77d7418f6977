package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyWindowError(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := NewEmptyWindowError("test/repo", start, start.AddDate(0, 6, 0))

	assert.Equal(t, CategoryEmptyWindow, err.Category)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.True(t, IsEmptyWindow(err))
	assert.False(t, IsUnknownContributor(err))

	// Detection survives wrapping.
	wrapped := WrapError(err, "running analysis for %s", "test/repo")
	assert.True(t, IsEmptyWindow(wrapped))
}

func TestUnknownContributorError(t *testing.T) {
	err := NewUnknownContributorError("ghost", "test/repo")

	assert.Equal(t, CategoryUnknownActor, err.Category)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.True(t, IsUnknownContributor(err))
	assert.False(t, IsEmptyWindow(err))
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("network snapshot", "test/repo")

	assert.Equal(t, CategoryNotFound, err.Category)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Contains(t, err.Error(), "network snapshot")
	assert.False(t, IsRetryableError(err))
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{"passthrough", NewValidationError("bad"), CategoryValidation},
		{"context cancelled", context.Canceled, CategoryTimeout},
		{"deadline exceeded", context.DeadlineExceeded, CategoryTimeout},
		{"connection refused", fmt.Errorf("dial tcp: connection refused"), CategoryUpstream},
		{"generic", fmt.Errorf("something odd"), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewUpstreamDataError("opendigger", nil)))
	assert.True(t, IsRetryableError(NewTimeoutError("slow", nil)))
	assert.False(t, IsRetryableError(NewValidationError("bad")))
	assert.False(t, IsRetryableError(NewEmptyWindowError("r", time.Now(), time.Now())))
	assert.False(t, IsRetryableError(NewUnknownContributorError("x", "r")))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(NewEmptyWindowError("test/repo", time.Now(), time.Now()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "empty_window")
}

func TestRecoveryHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RecoveryHandler())
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
