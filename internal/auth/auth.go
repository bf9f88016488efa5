// Package auth verifies callers at the interface boundary. The rest of
// the application only ever sees an Identity; no other layer performs
// authentication checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredential is returned when a credential fails verification.
var ErrInvalidCredential = errors.New("invalid credential")

// Kind names an authentication provider.
type Kind string

const (
	// KindNone disables authentication; every caller is anonymous.
	KindNone Kind = "none"
	// KindDirectory verifies username/password pairs against a
	// directory service.
	KindDirectory Kind = "directory"
	// KindToken verifies bearer tokens from an external issuer.
	KindToken Kind = "token"
)

// Identity is the verified caller passed to the session layer.
type Identity struct {
	Subject string
	Name    string
}

// Authenticator verifies a raw credential and resolves it to an
// identity. Implementations must not be bypassed by callers further
// down the stack.
type Authenticator interface {
	Kind() Kind
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// NoneAuthenticator accepts every caller as anonymous.
type NoneAuthenticator struct{}

func (NoneAuthenticator) Kind() Kind { return KindNone }

func (NoneAuthenticator) Authenticate(ctx context.Context, credential string) (Identity, error) {
	return Identity{}, nil
}

// VerifyFunc resolves a credential to a subject, or fails.
type VerifyFunc func(ctx context.Context, credential string) (Identity, error)

// DirectoryAuthenticator verifies "user:password" credentials through
// an injected directory binding.
type DirectoryAuthenticator struct {
	verify VerifyFunc
}

// NewDirectoryAuthenticator wires a directory binding function.
func NewDirectoryAuthenticator(verify VerifyFunc) (*DirectoryAuthenticator, error) {
	if verify == nil {
		return nil, fmt.Errorf("auth: directory provider requires a verifier")
	}
	return &DirectoryAuthenticator{verify: verify}, nil
}

func (a *DirectoryAuthenticator) Kind() Kind { return KindDirectory }

func (a *DirectoryAuthenticator) Authenticate(ctx context.Context, credential string) (Identity, error) {
	user, _, ok := strings.Cut(credential, ":")
	if !ok || user == "" {
		return Identity{}, fmt.Errorf("auth: %w: expected user:password", ErrInvalidCredential)
	}
	identity, err := a.verify(ctx, credential)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: %w", ErrInvalidCredential)
	}
	return identity, nil
}

// TokenAuthenticator verifies opaque bearer tokens through an injected
// issuer check.
type TokenAuthenticator struct {
	verify VerifyFunc
}

// NewTokenAuthenticator wires a token verification function.
func NewTokenAuthenticator(verify VerifyFunc) (*TokenAuthenticator, error) {
	if verify == nil {
		return nil, fmt.Errorf("auth: token provider requires a verifier")
	}
	return &TokenAuthenticator{verify: verify}, nil
}

func (a *TokenAuthenticator) Kind() Kind { return KindToken }

func (a *TokenAuthenticator) Authenticate(ctx context.Context, credential string) (Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return Identity{}, fmt.Errorf("auth: %w: empty token", ErrInvalidCredential)
	}
	identity, err := a.verify(ctx, credential)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: %w", ErrInvalidCredential)
	}
	return identity, nil
}

// New builds the authenticator named by provider. An empty provider
// means authentication is disabled.
func New(provider string, verify VerifyFunc) (Authenticator, error) {
	switch Kind(provider) {
	case KindNone, "":
		return NoneAuthenticator{}, nil
	case KindDirectory:
		return NewDirectoryAuthenticator(verify)
	case KindToken:
		return NewTokenAuthenticator(verify)
	default:
		return nil, fmt.Errorf("auth: unknown provider %q (want none, directory, or token)", provider)
	}
}
