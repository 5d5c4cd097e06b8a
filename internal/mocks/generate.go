// Package mocks provides gomock implementations of the authentication ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	resolver := mocks.NewMockIdentityResolver(ctrl)
//	resolver.EXPECT().FindByIdentifier(gomock.Any(), "user@example.com").Return(identity, nil)
package mocks

// Generate mocks for the token codec and identity resolver ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_codec_mock.go github.com/target/gatekeeper/internal/ports TokenCodec
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_resolver_mock.go github.com/target/gatekeeper/internal/ports IdentityResolver

// Generate mock for the password verifier port used by the Basic stage.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_verifier_mock.go github.com/target/gatekeeper/internal/ports PasswordVerifier
