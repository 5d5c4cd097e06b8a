package httpx

import (
	"net/http"
	"time"
)

type meResponse struct {
	ID              string    `json:"id"`
	Capabilities    []string  `json:"capabilities"`
	Method          string    `json:"method"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	RequestID       string    `json:"request_id,omitempty"`
}

// meHandler describes the identity authenticated for the current request.
func meHandler(w http.ResponseWriter, r *http.Request) {
	sc := SecurityContextFromRequest(r)
	if !sc.IsAuthenticated() {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errAuthenticationRequired,
		})
		return
	}
	caps := sc.Capabilities()
	if caps == nil {
		caps = []string{}
	}
	WriteJSON(w, http.StatusOK, meResponse{
		ID:              sc.Subject(),
		Capabilities:    caps,
		Method:          string(sc.Method),
		AuthenticatedAt: sc.AuthenticatedAt,
		RequestID:       sc.Details.RequestID,
	})
}
