package shared

import "context"

type userIDContextKey struct{}

// ContextWithUserID stores the authenticated user id in context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext extracts the authenticated user id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(int64)
	return id, ok && id > 0
}

type originContextKey struct{}

// ContextWithOrigin stores the caller address recorded on audit entries.
func ContextWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

// OriginFromContext returns the caller address, or "" when unknown.
func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
