package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFirstRunWritesTemplate(t *testing.T) {
	base := t.TempDir()

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(base), cfg)

	_, err = os.Stat(filepath.Join(base, "config.json"))
	require.NoError(t, err, "template should be written on first run")

	// The annotated template must itself parse to the defaults.
	again, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(base), again)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	base := t.TempDir()
	content := `// comment line
{
  // another comment
  "server": {"port": "8080", "api_key": "s3cret"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(base, "config.json"), []byte(content), 0o600))

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.APIKey)
	assert.Equal(t, DriverBunt, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(base, "tat.db"), cfg.Store.BuntPath)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
}

func TestEnvOverridesFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("TAT_PORT", "9999")
	t.Setenv("TAT_API_KEY", "from-env")
	t.Setenv("TAT_BUNT_PATH", ":memory:")
	t.Setenv("TAT_CACHE_TTL", "30s")

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Server.APIKey)
	assert.Equal(t, ":memory:", cfg.Store.BuntPath)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
}

func TestLoadCorruptFile(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "config.json"), []byte("{bad json"), 0o600))

	_, err := Load(base)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig(t.TempDir())
	assert.NoError(t, cfg.Validate())

	cfg.Store.Driver = DriverPostgres
	assert.Error(t, cfg.Validate(), "postgres without DATABASE_URL")

	cfg.Store.DatabaseURL = "postgres://localhost/tat"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig(t.TempDir())
	cfg.Cache.TTL = "soon"
	assert.Error(t, cfg.Validate())
}

func TestStripLineComments(t *testing.T) {
	in := []byte("// a\n  // b\n{\"x\": 1}\n")
	assert.Equal(t, "{\"x\": 1}\n\n", string(stripLineComments(in)))
}
