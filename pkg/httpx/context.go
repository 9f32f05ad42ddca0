package httpx

import "context"

type ctxKey string

// CtxKeyUserID holds the authenticated user id once a guard has run.
const CtxKeyUserID ctxKey = "user_id"

// WithUserID stores the authenticated user id for downstream middleware such
// as per-user rate limiting.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, id)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}
