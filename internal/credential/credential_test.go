package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	cred, err := Static{Token: "abc"}.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", cred.Token)
	require.True(t, Static{}.IsValid(context.Background(), cred))

	_, err = Static{}.Acquire(context.Background())
	require.ErrorIs(t, err, ErrMissing)
}

func TestEnvProvider_FromLookup(t *testing.T) {
	t.Parallel()

	env := map[string]string{"TOKEN": " abc ", "CSRF": "xyz"}
	p := NewEnvProvider("TOKEN", "CSRF", "")
	p.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cred, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, Credential{Token: "abc", CSRFToken: "xyz"}, cred)
}

func TestEnvProvider_Missing(t *testing.T) {
	t.Parallel()

	p := NewEnvProvider("TOKEN", "", "")
	p.lookup = func(string) (string, bool) { return "", false }

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrMissing)
}

func TestEnvProvider_LoadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARCHIVER_TEST_TOKEN=fromfile\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ARCHIVER_TEST_TOKEN") })

	cred, err := NewEnvProvider("ARCHIVER_TEST_TOKEN", "", path).Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fromfile", cred.Token)
}

func TestCredential_StringRedacts(t *testing.T) {
	t.Parallel()

	require.Equal(t, "credential(redacted)", Credential{Token: "secret"}.String())
	require.Equal(t, "credential(empty)", Credential{}.String())
}
