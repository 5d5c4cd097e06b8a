package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(domainauth.Identity{ID: "alice", Capabilities: []string{"ROLE_USER"}})

	got, err := r.FindByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ID)

	_, err = r.FindByIdentifier(context.Background(), "bob")
	assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)
	assert.Equal(t, 2, r.Calls())
}

func TestStubCodec(t *testing.T) {
	c := StubCodec{Malformed: "garbage"}

	sub, err := c.ExtractSubject("alice|invalid")
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
	assert.False(t, c.Validate("alice|invalid", domainauth.Identity{ID: "alice"}))
	assert.True(t, c.Validate("alice", domainauth.Identity{ID: "alice"}))

	_, err = c.ExtractSubject("garbage")
	assert.ErrorIs(t, err, domainauth.ErrMalformedToken)
}
