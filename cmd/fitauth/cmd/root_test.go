package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-fitauth"
)

func captureOutput(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		configPath, tokenUserID, tokenEmail, tokenTTL = "", "", "", 0
	})

	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"FITAUTH_CONFIG", "JWT_SECRET", "NODE_ENV", "APP_ENV", "PORT",
		"DATABASE_URL", "DATABASE_DRIVER", "LOG_LEVEL", "LOG_FORMAT", "AUTH_LOOKUP_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "fitauth", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentPreRunE)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestSubcommandRegistration(t *testing.T) {
	registered := map[string]*cobra.Command{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = c
	}

	for _, name := range []string{"serve", "migrate", "token"} {
		c, ok := registered[name]
		if assert.True(t, ok, "missing subcommand %s", name) {
			assert.NotEmpty(t, c.Short, name)
		}
	}

	for _, flag := range []string{"user-id", "email", "ttl"} {
		assert.NotNil(t, tokenCmd.Flags().Lookup(flag), flag)
	}
}

func TestTokenCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "cli-secret")

	out, _, err := captureOutput(t, "token", "--user-id", "42", "--email", "ada@example.com", "--ttl", "10m")
	require.NoError(t, err)

	raw := strings.TrimSpace(out)
	require.NotEmpty(t, raw)

	claims, err := auth.NewTokenService(auth.TokenOptions{Secret: "cli-secret"}).Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	isolateEnv(t)

	_, _, err := captureOutput(t, "token", "--user-id", "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMissingSecret)
}

func TestMigrateCommand(t *testing.T) {
	isolateEnv(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "fitauth.db")
	t.Setenv("DATABASE_URL", dsn)

	_, _, err := captureOutput(t, "migrate")
	require.NoError(t, err)

	_, _, err = captureOutput(t, "migrate")
	assert.NoError(t, err, "migrate is idempotent")
}

func TestInvalidConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PORT", "not-a-port")

	_, _, err := captureOutput(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
