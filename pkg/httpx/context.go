package httpx

type ctxKey string

const (
	// CtxKeyUserID holds the authenticated user's id (string).
	CtxKeyUserID ctxKey = "user_id"
)
