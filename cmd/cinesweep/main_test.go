package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", LogFormat: "json"}
	flagLogLevel, flagLogFormat = "debug", ""
	t.Cleanup(func() { flagLogLevel, flagLogFormat = "", "" })

	applyFlags(cfg)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestGenKey(t *testing.T) {
	out, err := execute(t, "gen-key")
	require.NoError(t, err)

	var key, hash string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		switch {
		case strings.HasPrefix(line, "key:"):
			key = strings.TrimSpace(strings.TrimPrefix(line, "key:"))
		case strings.HasPrefix(line, "hash:"):
			hash = strings.TrimSpace(strings.TrimPrefix(line, "hash:"))
		}
	}
	require.NotEmpty(t, key)
	assert.True(t, auth.New("", hash, 0).CheckAPIKey(key))
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--subject", "ci", "--role", "admin")
	require.NoError(t, err)

	claims, err := auth.New("cli-secret", "", 0).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	_, err = execute(t, "token", "--role", "root")
	assert.Error(t, err)
}

func TestInsecureSecretIsRefused(t *testing.T) {
	for _, secret := range []string{"", config.DefaultJWTSecret} {
		t.Setenv("JWT_SECRET", secret)

		_, err := execute(t, "token", "--role", "admin")
		assert.ErrorIs(t, err, config.ErrInsecureSecret)

		_, err = execute(t, "serve")
		assert.ErrorIs(t, err, config.ErrInsecureSecret)
	}
}
