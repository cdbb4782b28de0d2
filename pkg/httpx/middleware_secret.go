package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// AdminSecretHeader carries the admin secret on administrative routes.
const AdminSecretHeader = "admin-secret"

// RequireSecretHeader rejects with 403 unless header equals secret. The
// comparison is constant time. An empty secret rejects everything.
func RequireSecretHeader(header, secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(header)
			if secret == "" || presented == "" || !cryptox.Equal(presented, secret) {
				slogx.FromContext(r.Context()).Warn("admin secret rejected",
					"header", header,
					"secret_present", presented != "",
				)
				WriteError(w, http.StatusForbidden, "forbidden", "invalid admin secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
