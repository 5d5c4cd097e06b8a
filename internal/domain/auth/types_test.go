package auth

import (
	"context"
	"testing"
	"time"
)

func TestSecurityContext_EmptyIsUnauthenticated(t *testing.T) {
	sc := Empty()
	if sc.IsAuthenticated() {
		t.Fatalf("expected empty context")
	}
	if sc.Subject() != "" || sc.Capabilities() != nil || sc.HasCapability("ROLE_USER") {
		t.Fatalf("unexpected data on empty context: %+v", sc)
	}
}

func TestSecurityContext_Capabilities(t *testing.T) {
	sc := SecurityContext{
		Identity: &Identity{ID: "user@example.com", Capabilities: []string{"ROLE_USER"}},
		Method:   MethodBearer,
	}
	if !sc.HasCapability("ROLE_USER") || sc.HasCapability("ROLE_ADMIN") {
		t.Fatalf("unexpected capability check result")
	}

	caps := sc.Capabilities()
	caps[0] = "mutated"
	if sc.Identity.Capabilities[0] != "ROLE_USER" {
		t.Fatalf("Capabilities must return a copy")
	}
}

func TestWithSecurityContext_InstallsOnce(t *testing.T) {
	first := SecurityContext{Identity: &Identity{ID: "first"}, AuthenticatedAt: time.Now()}
	second := SecurityContext{Identity: &Identity{ID: "second"}}

	ctx := WithSecurityContext(context.Background(), first)
	ctx = WithSecurityContext(ctx, second)

	got, ok := SecurityContextFrom(ctx)
	if !ok {
		t.Fatalf("expected context to be installed")
	}
	if got.Subject() != "first" {
		t.Fatalf("populated context was overwritten: %q", got.Subject())
	}
}

func TestWithSecurityContext_IgnoresEmpty(t *testing.T) {
	base := context.Background()
	if WithSecurityContext(base, Empty()) != base {
		t.Fatalf("empty context should leave ctx unchanged")
	}
	if CurrentSecurityContext(base).IsAuthenticated() {
		t.Fatalf("expected unauthenticated context")
	}
}
