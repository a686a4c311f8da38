package middleware

import (
	"context"
	"net/http"
)

// SubjectHeader carries the caller's opaque identity. Authentication happens
// upstream; by the time a request reaches these services the subject is
// already resolved.
const SubjectHeader = "X-Subject-ID"

const SubjectIDKey contextKey = "subject_id"

// SubjectIdentity copies the subject header into the request context.
// Handlers that require a subject reject requests where it is absent.
func SubjectIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subject := r.Header.Get(SubjectHeader); subject != "" {
				ctx := context.WithValue(r.Context(), SubjectIDKey, subject)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectID returns the subject identity from the context, or "" when the
// request carried none.
func SubjectID(ctx context.Context) string {
	if v := ctx.Value(SubjectIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
