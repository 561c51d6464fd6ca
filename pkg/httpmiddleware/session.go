package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionHeader identifies the shopper's browser session. Clients keep the
// value returned on their first request and send it back on every call.
const SessionHeader = "X-Session-ID"

type sessionIDKey struct{}

// SessionIDFromContext returns the session id stored by Session.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// WithSessionID stores id in ctx as Session would.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// Session accepts a UUID session id from the request header or issues a new
// one. The effective id is always echoed in the response header.
func Session() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(SessionHeader, id)
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}
