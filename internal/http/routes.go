package httpx

import "net/http"

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Readiness checks are exposed on /readyz; an empty map always reports ready.
	Readiness map[string]ReadinessCheck
}

// NewRouter registers the service endpoints. Authentication is applied by BuildFilterChain.
func NewRouter(opts RouterOptions) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(opts.Readiness))

	mux.Handle("GET /api/v1/greetings", greetingsHandler(greetingHello))
	mux.Handle("GET /api/v1/greetings/say-good-bye", greetingsHandler(greetingGoodBye))
	mux.Handle("GET /api/v1/me", http.HandlerFunc(meHandler))

	mux.Handle("/", http.HandlerFunc(notFoundHandler))
	return mux
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
}
