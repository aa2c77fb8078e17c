// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies between middleware and handlers,
// and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// ActorKey contains the authenticated *authz.UserWithAccess.
	// Set by: middleware.AuthMiddleware
	// Required by: guard middleware, all protected handlers
	ActorKey Key = "actor"

	// RequestIDKey contains the request ID string (UUID).
	// Set by: middleware.RequestID
	// Used by: logger, denial audit lines
	RequestIDKey Key = "request_id"

	// LoggerKey contains the per-request *observability.Logger.
	// Set by: middleware.RequestID
	// Used by: handlers that log with request context
	LoggerKey Key = "logger"
)

// WithActor adds the authenticated actor to the context. The value is stored
// as interface{} to avoid an import cycle with pkg/authz.
func WithActor(ctx context.Context, actor interface{}) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
