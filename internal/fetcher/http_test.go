package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/arbor-insights/pulse-cli/internal/resilience"
)

func TestGetJSON_AppliesBearerAuth(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "pulse-cli-test"})
	_, err := c.GetJSON(context.Background(), srv.URL, BearerAuth("tok123"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "pulse-cli-test", gotUA)
}

func TestGetJSON_AppliesQueryAuth(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.GetJSON(context.Background(), srv.URL+"?existing=1", QueryAuth("api_key", "k9"))
	require.NoError(t, err)
	assert.Equal(t, "k9", gotKey)
}

func TestGetJSON_ClassifiesStatuses(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		auth      bool
	}{
		{http.StatusInternalServerError, true, false},
		{http.StatusBadGateway, true, false},
		{http.StatusTooManyRequests, true, false},
		{http.StatusUnauthorized, false, true},
		{http.StatusForbidden, false, true},
		{http.StatusNotFound, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(Options{})
			_, err := c.GetJSON(context.Background(), srv.URL, Auth{})
			require.Error(t, err)

			var authErr *AuthError
			assert.Equal(t, tt.auth, errors.As(err, &authErr))
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestNewClient_RateLimitFromOptions(t *testing.T) {
	c := NewClient(Options{RateLimit: 5, RateBurst: 2})

	lim := c.limiterFor("https://api.example.com/v1/things")
	assert.Equal(t, rate.Limit(5), lim.Limit())
	assert.Equal(t, 2, lim.Burst())
}

func TestNewClient_RateLimitDefaults(t *testing.T) {
	c := NewClient(Options{})

	lim := c.limiterFor("https://api.example.com/v1/things")
	assert.Equal(t, rate.Limit(20), lim.Limit())
	assert.Equal(t, 20, lim.Burst())
}

func TestNewClient_PerHostLimiterOverride(t *testing.T) {
	dedicated := rate.NewLimiter(1, 1)
	c := NewClient(Options{
		RateLimit:    5,
		RateBurst:    2,
		RateLimiters: map[string]*rate.Limiter{"slow.example.com": dedicated},
	})

	assert.Same(t, dedicated, c.limiterFor("https://slow.example.com/v1"))
	assert.Equal(t, rate.Limit(5), c.limiterFor("https://other.example.com/v1").Limit())
}

func TestGetJSON_TransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(Options{})
	_, err := c.GetJSON(context.Background(), srv.URL, Auth{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}
