package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/chatgate/pkg/slogx"
	"github.com/rs/cors"
)

// CORSConfig lists what cross-origin callers may do.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// DefaultCORSConfig allows any origin to call the gateway with its headers.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", APIKeyHeader, AdminSecretHeader, slogx.RequestIDHeader},
	}
}

// CORSMiddleware adds Access-Control-Allow-* headers and answers preflight
// requests with 204 without calling next. Any other OPTIONS request is
// also answered with an empty 204 so it never reaches the API key gate.
func CORSMiddleware(cfg CORSConfig) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins:       cfg.AllowedOrigins,
		AllowedMethods:       cfg.AllowedMethods,
		AllowedHeaders:       cfg.AllowedHeaders,
		ExposedHeaders:       []string{slogx.RequestIDHeader},
		OptionsSuccessStatus: http.StatusNoContent,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
