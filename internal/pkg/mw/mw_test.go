package mw

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.001), 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping").Code)

	w := perform(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	var hits atomic.Int32

	r := gin.New()
	r.GET("/tags", Cache(store, time.Minute), func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusOK, gin.H{"items": []string{"wifi"}})
	})
	r.POST("/tags", Invalidate(store), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/missing", Cache(store, time.Minute), func(c *gin.Context) {
		hits.Add(1)
		c.Status(http.StatusNotFound)
	})

	first := perform(r, http.MethodGet, "/tags")
	second := perform(r, http.MethodGet, "/tags")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), hits.Load())

	perform(r, http.MethodPost, "/tags")
	perform(r, http.MethodGet, "/tags")
	assert.Equal(t, int32(2), hits.Load(), "write flushes the cache")

	perform(r, http.MethodGet, "/missing")
	perform(r, http.MethodGet, "/missing")
	assert.Equal(t, int32(4), hits.Load(), "errors are not cached")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/offices/:id", func(c *gin.Context) {
		log.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := perform(r, http.MethodGet, "/offices/42")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	out := buf.String()
	assert.Contains(t, out, `"message":"inside handler"`)
	assert.Contains(t, out, `"route":"/offices/:id"`)
	assert.Contains(t, out, `"status":204`)
	assert.Contains(t, out, `"request_id":"`+w.Header().Get(RequestIDHeader)+`"`)
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
