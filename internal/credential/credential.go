// Package credential defines the credential value threaded through every
// catalog call and the provider contract used to obtain one.
//
// Acquiring a credential interactively (an OAuth-style local callback flow)
// lives outside this module; any type satisfying Provider can be plugged in.
// EnvProvider covers the common case of a session token exported by that
// flow into the environment or a .env file.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissing is returned when no credential could be found.
var ErrMissing = errors.New("credential not found")

// Credential is an opaque token granting access to protected content.
type Credential struct {
	// Token is the session token.
	Token string

	// CSRFToken accompanies mutating or protected queries when the catalog
	// requires it. May be empty.
	CSRFToken string
}

// Empty reports whether the credential carries no token.
func (c Credential) Empty() bool {
	return strings.TrimSpace(c.Token) == ""
}

// String hides the token so credentials never leak into logs.
func (c Credential) String() string {
	if c.Empty() {
		return "credential(empty)"
	}
	return "credential(redacted)"
}

// Provider obtains and checks credentials.
type Provider interface {
	Acquire(ctx context.Context) (Credential, error)
	IsValid(ctx context.Context, cred Credential) bool
}

// Static is a Provider that always returns the same credential.
type Static Credential

// Acquire returns the wrapped credential.
func (s Static) Acquire(_ context.Context) (Credential, error) {
	cred := Credential(s)
	if cred.Empty() {
		return Credential{}, ErrMissing
	}
	return cred, nil
}

// IsValid reports whether cred carries a token.
func (s Static) IsValid(_ context.Context, cred Credential) bool {
	return !cred.Empty()
}

// EnvProvider reads the credential from environment variables, optionally
// loading a dotenv file first.
type EnvProvider struct {
	// TokenVar names the variable holding the session token.
	TokenVar string

	// CSRFVar names the variable holding the CSRF token. Optional.
	CSRFVar string

	// EnvFile is loaded with godotenv before reading variables. Variables
	// already present in the environment win. Optional.
	EnvFile string

	lookup func(string) (string, bool)
}

// NewEnvProvider builds an EnvProvider.
func NewEnvProvider(tokenVar, csrfVar, envFile string) *EnvProvider {
	return &EnvProvider{
		TokenVar: tokenVar,
		CSRFVar:  csrfVar,
		EnvFile:  envFile,
		lookup:   os.LookupEnv,
	}
}

// Acquire loads the env file (if any) and reads the configured variables.
func (p *EnvProvider) Acquire(_ context.Context) (Credential, error) {
	if p.EnvFile != "" {
		if err := godotenv.Load(p.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Credential{}, fmt.Errorf("load env file %s: %w", p.EnvFile, err)
		}
	}

	lookup := p.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	token, _ := lookup(p.TokenVar)
	cred := Credential{Token: strings.TrimSpace(token)}
	if p.CSRFVar != "" {
		csrf, _ := lookup(p.CSRFVar)
		cred.CSRFToken = strings.TrimSpace(csrf)
	}
	if cred.Empty() {
		return Credential{}, fmt.Errorf("%w: set %s", ErrMissing, p.TokenVar)
	}
	return cred, nil
}

// IsValid reports whether cred carries a token. Whether the catalog still
// accepts it is only known once a query is made.
func (p *EnvProvider) IsValid(_ context.Context, cred Credential) bool {
	return !cred.Empty()
}
