package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darkkaiser/checkin-server/internal/service/api/httputil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedServer(requestsPerSecond, burst int) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.Use(RateLimiting(requestsPerSecond, burst))
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestRateLimiting(t *testing.T) {
	t.Run("BurstExceeded_Returns429", func(t *testing.T) {
		e := newRateLimitedServer(1, 2)

		statuses := make([]int, 0, 3)
		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			statuses = append(statuses, rec.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	})

	t.Run("RetryAfterHeaderSet", func(t *testing.T) {
		e := newRateLimitedServer(1, 1)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("IndependentPerIP", func(t *testing.T) {
		e := newRateLimitedServer(1, 1)

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, first)
		assert.Equal(t, http.StatusOK, rec.Code)

		// 같은 IP의 후속 요청은 제한되지만, 다른 IP는 독립적인 버킷을 사용한다.
		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		other := httptest.NewRequest(http.MethodGet, "/", nil)
		other.Header.Set(echo.HeaderXRealIP, "10.0.0.2")
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, other)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("InvalidConfiguration_Panics", func(t *testing.T) {
		assert.Panics(t, func() { RateLimiting(0, 1) })
		assert.Panics(t, func() { RateLimiting(1, 0) })
	})
}
