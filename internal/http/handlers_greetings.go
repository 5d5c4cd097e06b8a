package httpx

import (
	"io"
	"net/http"
)

const (
	greetingHello   = "hello from our API"
	greetingGoodBye = "good bye see you later!"
)

func greetingsHandler(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
	}
}
