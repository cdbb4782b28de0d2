package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// APIKeyHeader carries the rotating access key.
const APIKeyHeader = "x-api-key"

// Validator decides whether a presented key may access a path.
type Validator interface {
	Validate(presented, path string) keyx.Decision
}

// APIKeyMiddleware gates every request through v. Rejected requests get a
// 401 JSON body; the presented key is never echoed or logged.
func APIKeyMiddleware(v Validator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)

			if v.Validate(presented, r.URL.Path) == keyx.Reject {
				slogx.FromContext(r.Context()).Warn("api key rejected",
					"key_present", presented != "",
				)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired API key")
				return
			}

			if presented != "" {
				r = r.WithContext(withAPIKeyFingerprint(r.Context(), cryptox.Fingerprint(presented)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
