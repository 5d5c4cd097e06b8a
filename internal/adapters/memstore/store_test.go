package memstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

func TestStore_FindByIdentifier(t *testing.T) {
	store, err := New(
		domainauth.Identity{ID: "user@example.com", Capabilities: []string{"ROLE_USER"}},
		domainauth.Identity{ID: "admin@example.com", Capabilities: []string{"ROLE_USER", "ROLE_ADMIN"}},
	)
	require.NoError(t, err)

	got, err := store.FindByIdentifier(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.ID)
	assert.Equal(t, []string{"ROLE_USER"}, got.Capabilities)

	_, err = store.FindByIdentifier(context.Background(), "unknown@example.com")
	assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)

	// Lookups are case-sensitive.
	_, err = store.FindByIdentifier(context.Background(), "USER@example.com")
	assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	caps := []string{"ROLE_USER"}
	store, err := New(domainauth.Identity{ID: "alice", Capabilities: caps})
	require.NoError(t, err)

	caps[0] = "mutated-by-caller"
	got, err := store.FindByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, got.Capabilities)

	got.Capabilities[0] = "mutated-by-reader"
	again, err := store.FindByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, again.Capabilities)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(domainauth.Identity{ID: "  "})
	assert.Error(t, err)

	_, err = New(domainauth.Identity{ID: "a"}, domainauth.Identity{ID: "a"})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	store, err := Load(strings.NewReader(`[
		{"id": "user@example.com", "capabilities": ["ROLE_USER"]},
		{"id": "svc@example.com", "password_hash": "$2a$10$abc", "capabilities": []}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"svc@example.com", "user@example.com"}, store.IDs())

	empty, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = Load(strings.NewReader(`[{"id": "x", "role": "admin"}]`))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = Load(strings.NewReader(`{"id": "x"}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"user@example.com","capabilities":["ROLE_USER"]}]`), 0o600))

	store, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
