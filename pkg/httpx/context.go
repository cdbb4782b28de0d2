package httpx

import "context"

type ctxKey string

const (
	// CtxKeyAPIKeyFP holds the fingerprint of an accepted API key.
	CtxKeyAPIKeyFP ctxKey = "api_key_fp"
)

func withAPIKeyFingerprint(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, CtxKeyAPIKeyFP, fp)
}

// APIKeyFingerprintFromContext returns the fingerprint set by
// APIKeyMiddleware, or "" for unauthenticated requests.
func APIKeyFingerprintFromContext(ctx context.Context) string {
	fp, _ := ctx.Value(CtxKeyAPIKeyFP).(string)
	return fp
}
