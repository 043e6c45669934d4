package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis spins up a disposable Redis container and returns a client
// pointing at it.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, mappedPort.Port()),
	})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestIsAllowedWindowing(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	rl := NewRateLimiter(client, RateLimitConfig{
		Window:    time.Hour,
		Limit:     3,
		KeyPrefix: "rate_limit:test",
	})

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := rl.IsAllowed(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, resetTime, err := rl.IsAllowed(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, resetTime.After(time.Now()))

	// per-user keys: another user still has the full budget
	allowed, remaining, _, err = rl.IsAllowed(ctx, "user-b")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)
}

func TestRateLimitMiddleware(t *testing.T) {
	client := startRedis(t)
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(client, RateLimitConfig{
		Window:    time.Hour,
		Limit:     1,
		KeyPrefix: "rate_limit:mw",
	})

	router := gin.New()
	router.GET("/limited", func(c *gin.Context) {
		c.Set("user_id", "user-a")
	}, rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var response struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "rate limit exceeded", response.Error)
	assert.Greater(t, response.RetryAfter, 0)
}

func TestRateLimitMiddlewareRequiresIdentity(t *testing.T) {
	client := startRedis(t)
	gin.SetMode(gin.TestMode)

	rl := NewAIRateLimiter(client)
	router := gin.New()
	router.GET("/limited", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
