package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIdentityRequest_NormalizeAndValidate(t *testing.T) {
	req := CreateIdentityRequest{
		ID:           "  user@example.com ",
		Capabilities: []string{" ROLE_USER", "ROLE_USER", "", "ROLE_ADMIN"},
	}
	req.Normalize()

	require.NoError(t, req.Validate())
	assert.Equal(t, "user@example.com", req.ID)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, req.Capabilities)
}

func TestCreateIdentityRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  CreateIdentityRequest
	}{
		{name: "empty id", req: CreateIdentityRequest{}},
		{name: "id too long", req: CreateIdentityRequest{ID: strings.Repeat("a", 321)}},
		{name: "bad capability", req: CreateIdentityRequest{ID: "a", Capabilities: []string{"ROLE USER"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.req.Validate())
		})
	}
}

func TestIdentityRecord_ToIdentity(t *testing.T) {
	hash := "$2a$10$hash"
	rec := IdentityRecord{ID: "alice", PasswordHash: &hash}

	ident := rec.ToIdentity()
	assert.Equal(t, "alice", ident.ID)
	assert.Equal(t, hash, ident.PasswordHash)
	assert.Equal(t, []string{}, ident.Capabilities)
}
