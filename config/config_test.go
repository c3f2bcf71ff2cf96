package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := writeEnvFile(t, `
HUSQ_CLIENT_ID=cid
HUSQ_CLIENT_SECRET=secret
HUSQ_APP_KEY=appkey
HUSQ_REFRESH_TOKEN=rt
POLL_SECONDS=10
INFLUX_TOKEN=influx-tok
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cid", cfg.Credentials.ClientID)
	assert.Equal(t, "rt", cfg.Credentials.RefreshToken)
	assert.Equal(t, 10, cfg.Poll.Seconds)
	assert.Equal(t, "influx-tok", cfg.Influx.Token)
	assert.Equal(t, path, cfg.EnvFile)

	// Defaults fill in everything else.
	assert.Equal(t, DefaultTokenURL, cfg.API.TokenURL)
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultRedirectURI, cfg.Credentials.RedirectURI)
	assert.Equal(t, "home", cfg.Influx.Org)
	assert.Equal(t, "automower", cfg.Influx.Bucket)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeEnvFile(t, "HUSQ_CLIENT_ID=from-file\n")
	t.Setenv("HUSQ_CLIENT_ID", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Credentials.ClientID)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Poll.Seconds)
}

func TestLoad_PollSecondsFloor(t *testing.T) {
	path := writeEnvFile(t, "POLL_SECONDS=0\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Poll.Seconds)
}

func TestValidateCredentials(t *testing.T) {
	path := writeEnvFile(t, "HUSQ_CLIENT_ID=cid\nHUSQ_APP_KEY=appkey\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.ValidateCredentials()
	require.Error(t, err)

	var missing *MissingKeysError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"HUSQ_CLIENT_SECRET", "HUSQ_REFRESH_TOKEN"}, missing.Keys)
	assert.Contains(t, err.Error(), "HUSQ_CLIENT_SECRET")
}

func TestValidateLogin(t *testing.T) {
	path := writeEnvFile(t, "HUSQ_CLIENT_ID=cid\nHUSQ_CLIENT_SECRET=secret\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	// Login does not require a refresh token; it produces one.
	assert.NoError(t, cfg.ValidateLogin())

	cfg.Credentials.ClientSecret = ""
	var missing *MissingKeysError
	require.ErrorAs(t, cfg.ValidateLogin(), &missing)
	assert.Equal(t, []string{"HUSQ_CLIENT_SECRET"}, missing.Keys)
}

func TestLoad_ScopeQuotesStripped(t *testing.T) {
	path := writeEnvFile(t, `HUSQ_SCOPE="iam:read amc:read"` + "\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "iam:read amc:read", cfg.Credentials.Scope)
}
