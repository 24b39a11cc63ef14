package auth

import "context"

type ctxKey string

const principalIDKey ctxKey = "principalID"

// WithPrincipalID stores the authenticated principal id in ctx.
func WithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalIDKey, id)
}

func PrincipalIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalIDKey).(string)
	return id, ok && id != ""
}
