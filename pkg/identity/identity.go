package identity

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"

	// RequestIDHeader carries the request id in and out of the server.
	RequestIDHeader = "X-Request-ID"
)

// Identity describes the caller of a request.
type Identity struct {
	RequestID string
	RemoteIP  net.IP
	UserAgent string
}

// FromRequest builds an Identity from an incoming request. A missing
// X-Request-ID header gets a fresh UUID. X-Forwarded-For is only honoured
// when trustForwarded is set.
func FromRequest(r *http.Request, trustForwarded bool) *Identity {
	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &Identity{
		RequestID: requestID,
		RemoteIP:  ClientIP(r, trustForwarded),
		UserAgent: r.UserAgent(),
	}
}

// ClientIP returns the address of the client. With trustForwarded the first
// entry of X-Forwarded-For wins over the connection address.
func ClientIP(r *http.Request, trustForwarded bool) net.IP {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// ClientIPString is RemoteIP formatted for logs; "-" when unknown.
func (i *Identity) ClientIPString() string {
	if i == nil || i.RemoteIP == nil {
		return "-"
	}
	return i.RemoteIP.String()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}

// Middleware stores the caller Identity in the request context and echoes
// the request id in the response. X-Forwarded-For is honoured only when the
// connecting peer passes trustedProxy; a nil trustedProxy trusts nobody.
func Middleware(trustedProxy func(ip string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trusted := trustedProxy != nil && trustedProxy(ClientIP(r, false).String())
			id := FromRequest(r, trusted)
			w.Header().Set(RequestIDHeader, id.RequestID)
			next.ServeHTTP(w, r.WithContext(Set(r.Context(), id)))
		})
	}
}
