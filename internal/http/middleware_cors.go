package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// CORSConfig configures the cross-origin stage.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

// CORS returns a middleware answering preflight requests for the configured origins.
// The credential and request id headers are always allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	maxAge := int(cfg.MaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = 300
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", DefaultCSRFHeaderName, HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID, "WWW-Authenticate"},
		// Credentials travel in headers, never in cookies.
		AllowCredentials: false,
		MaxAge:           maxAge,
	})
}
