package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(router *gin.Engine, method, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{
			name:           "simple GET request with origin",
			method:         http.MethodGet,
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusOK,
			wantCORSHeader: true,
		},
		{
			name:           "preflight OPTIONS request",
			method:         http.MethodOptions,
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusNoContent,
			wantCORSHeader: true,
		},
		{
			name:           "no origin header",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantCORSHeader: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.origin != "" {
				headers["Origin"] = tt.origin
			}
			w := doRequest(router, tt.method, "", headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Contains(t, cfg.AllowOrigins, "*")
	assert.Contains(t, cfg.AllowMethods, http.MethodPost)
	assert.Contains(t, cfg.AllowHeaders, RequestIDHeader)
	assert.Contains(t, cfg.ExposeHeaders, RequestIDHeader)
	assert.False(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// Burst capacity first
	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodGet, "192.168.1.1:1234", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}

	w := doRequest(router, http.MethodGet, "192.168.1.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// Other clients have their own bucket
	w = doRequest(router, http.MethodGet, "192.168.1.2:1234", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitForgetsIdleClients(t *testing.T) {
	set := newLimiterSet(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set.now = func() time.Time { return now }

	set.get("10.0.0.1")
	set.get("10.0.0.2")
	assert.Equal(t, 2, set.size())

	now = now.Add(2 * time.Minute)
	set.get("10.0.0.3")
	assert.Equal(t, 1, set.size())
}

func TestGlobalRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "192.168.1.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "192.168.1.2:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, http.MethodGet, "192.168.1.3:1234", nil).Code)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	assert.Equal(t, 100, cfg.RequestsPerSecond)
	assert.Equal(t, 200, cfg.Burst)
}

func TestRequestID(t *testing.T) {
	router := setupTestRouter()
	router.Use(RequestID())

	var fromGin, fromCtx string
	router.GET("/test", func(c *gin.Context) {
		fromGin = GetRequestID(c)
		fromCtx = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "", nil)
		rid := w.Header().Get(RequestIDHeader)
		assert.True(t, strings.HasPrefix(rid, "req_"))
		assert.Equal(t, rid, fromGin)
		assert.Equal(t, rid, fromCtx)
	})

	t.Run("propagated", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "", map[string]string{RequestIDHeader: "caller-123"})
		assert.Equal(t, "caller-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "caller-123", fromGin)
	})

	t.Run("oversized replaced", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "", map[string]string{RequestIDHeader: strings.Repeat("x", 200)})
		assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))
	})

	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	router := setupTestRouter()
	router.Use(RequestID(), Logger(zap.New(core)))
	router.GET("/test", func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadGateway)
			return
		}
		c.Status(http.StatusOK)
	})

	doRequest(router, http.MethodGet, "", nil)
	req := httptest.NewRequest(http.MethodGet, "/test?fail=1", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusBadGateway), entries[1].ContextMap()["status"])
	assert.Contains(t, entries[1].ContextMap(), "request_id")
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter()
	router.Use(RateLimit(DefaultRateLimitConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doRequest(router, http.MethodGet, "192.168.1.1:1234", nil)
	}
}
