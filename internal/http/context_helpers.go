package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 128

// SecurityContextFromRequest returns the security context installed on r, or the empty context.
func SecurityContextFromRequest(r *http.Request) domainauth.SecurityContext {
	return domainauth.CurrentSecurityContext(r.Context())
}

// requestDetails captures request metadata attached to an authenticated context.
func requestDetails(r *http.Request) domainauth.RequestDetails {
	return domainauth.RequestDetails{
		RemoteAddr: r.RemoteAddr,
		RequestID:  requestIDFrom(r),
		UserAgent:  r.UserAgent(),
	}
}

// requestIDFrom returns the client supplied request id or a fresh UUID when it is absent or unusable.
func requestIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxRequestIDLength || strings.ContainsAny(id, "\r\n") {
		return uuid.NewString()
	}
	return id
}

// authnMarkerKey flags a request context that has already passed through an authentication stage.
type authnMarkerKey struct{ stage string }

func markAuthnStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, authnMarkerKey{stage: stage}, true)
}

func authnStageDone(ctx context.Context, stage string) bool {
	done, _ := ctx.Value(authnMarkerKey{stage: stage}).(bool)
	return done
}

// requestLog collects request facts established by inner stages for the logging middleware.
type requestLog struct {
	subject string
	method  domainauth.AuthMethod
}

type requestLogKey struct{}

func withRequestLog(ctx context.Context) (context.Context, *requestLog) {
	entry := &requestLog{}
	return context.WithValue(ctx, requestLogKey{}, entry), entry
}

func (l *requestLog) note(sc domainauth.SecurityContext) {
	if l == nil || !sc.IsAuthenticated() {
		return
	}
	l.subject = sc.Subject()
	l.method = sc.Method
}

// noteAuthenticated records sc on the enclosing request log, if any.
func noteAuthenticated(ctx context.Context, sc domainauth.SecurityContext) {
	entry, _ := ctx.Value(requestLogKey{}).(*requestLog)
	entry.note(sc)
}
