// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and the session provider read them without
// importing net/http.
//
//	token := requestcontext.BearerToken(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithBearerToken(ctx, signed)
package requestcontext

import "context"

type (
	bearerTokenKey struct{}
	subjectKey     struct{}
	requestIDKey   struct{}
)

var (
	ContextKeyBearerToken = bearerTokenKey{}
	ContextKeySubject     = subjectKey{}
	ContextKeyRequestID   = requestIDKey{}
)

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// BearerToken retrieves the raw bearer token presented by the caller.
func BearerToken(ctx context.Context) string {
	if tok, ok := ctx.Value(ContextKeyBearerToken).(string); ok {
		return tok
	}
	return ""
}

// WithBearerToken injects a raw bearer token into the context.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyBearerToken, token)
}

// Subject retrieves the authenticated subject (wallet address or session subject).
// Returns "" when the request was not authenticated.
func Subject(ctx context.Context) string {
	if sub, ok := ctx.Value(ContextKeySubject).(string); ok {
		return sub
	}
	return ""
}

// WithSubject injects the authenticated subject into the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeySubject, subject)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
