package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name           string
		remoteAddr     string
		forwarded      string
		trustForwarded bool
		expected       string
	}{
		{
			name:       "connection address",
			remoteAddr: "10.0.0.1:5555",
			expected:   "10.0.0.1",
		},
		{
			name:       "forwarded header ignored when untrusted",
			remoteAddr: "10.0.0.1:5555",
			forwarded:  "203.0.113.9",
			expected:   "10.0.0.1",
		},
		{
			name:           "first forwarded entry when trusted",
			remoteAddr:     "10.0.0.1:5555",
			forwarded:      "203.0.113.9, 10.0.0.2",
			trustForwarded: true,
			expected:       "203.0.113.9",
		},
		{
			name:           "garbage forwarded header falls back",
			remoteAddr:     "10.0.0.1:5555",
			forwarded:      "not-an-ip",
			trustForwarded: true,
			expected:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/trees", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, ClientIP(req, tt.trustForwarded).String())
		})
	}
}

func TestFromRequest(t *testing.T) {
	t.Run("keeps incoming request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trees", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		id := FromRequest(req, false)
		assert.Equal(t, "abc-123", id.RequestID)
	})

	t.Run("generates request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/trees", nil)
		id := FromRequest(req, false)
		assert.Len(t, id.RequestID, 36)
	})
}

func TestGetSet(t *testing.T) {
	_, ok := Get(context.Background())
	assert.False(t, ok)

	ctx := Set(context.Background(), &Identity{RequestID: "r1"})
	id, ok := Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "r1", id.RequestID)
}

func TestClientIPStringNil(t *testing.T) {
	var id *Identity
	assert.Equal(t, "-", id.ClientIPString())
}

func TestMiddleware(t *testing.T) {
	var seen *Identity
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Get(r.Context())
	}))

	req := httptest.NewRequest("GET", "/trees", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, seen)
	assert.Equal(t, seen.RequestID, w.Header().Get(RequestIDHeader))
}

func TestMiddlewareTrustedProxy(t *testing.T) {
	var seen *Identity
	handler := Middleware(func(ip string) bool { return ip == "10.0.0.2" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Get(r.Context())
	}))

	req := httptest.NewRequest("GET", "/trees", nil)
	req.RemoteAddr = "10.0.0.2:4711"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, "203.0.113.9", seen.ClientIPString())

	req = httptest.NewRequest("GET", "/trees", nil)
	req.RemoteAddr = "10.0.0.3:4711"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.3", seen.ClientIPString())
}
