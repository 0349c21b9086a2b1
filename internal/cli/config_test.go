package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.SaveToken("abc"))
	info, err := os.Stat(c.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc", loaded.Token)

	require.NoError(t, loaded.ClearToken())
	assert.Empty(t, loaded.Token)
	_, err = os.Stat(c.TokenFile)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, loaded.ClearToken())
}

func TestConfigLoadTokenTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  tok-123\n"), 0600))

	c := &Config{TokenFile: path}
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "tok-123", c.Token)
}

func TestConfigLoadTokenKeepsExplicitToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0600))

	c := &Config{Token: "from-flag", TokenFile: path}
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "from-flag", c.Token)
}

func TestConfigLoadTokenMissingFile(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "absent")}
	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)
}

func TestDefaultConfigReadsEnvironment(t *testing.T) {
	t.Setenv("DIGITGUESS_SERVER", "http://example.test:9000")
	t.Setenv("DIGITGUESS_TOKEN", "env-token")
	t.Setenv("DIGITGUESS_TOKEN_FILE", "/tmp/dg-token")

	c := DefaultConfig()
	assert.Equal(t, "http://example.test:9000", c.ServerURL)
	assert.Equal(t, "env-token", c.Token)
	assert.Equal(t, "/tmp/dg-token", c.TokenFile)
	assert.Equal(t, "text", c.Output)
}
