package common

import "context"

// UserContext holds the authenticated user scope for a request. Requests
// without a resolved user never reach the analytics engine.
type UserContext struct {
	UserID string
	Role   string
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or empty string when no
// user context is present.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.UserID
	}
	return ""
}
