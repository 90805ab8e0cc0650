package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "calibration", cfg.OutputDir)
	assert.Equal(t, "instrumentLookUp.db", cfg.LookupDB)
	assert.Equal(t, "CTD/manufacturer", cfg.CTD.Manufacturer)
	assert.Equal(t, "NUTNRA/manufacturer_ARCHIVE", cfg.Nutnr.Archive)
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calparse.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
output_dir: /data/calibration
lookup_db: /data/lookup.db
ctd:
  manufacturer: /drops/ctd
`), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/calibration", cfg.OutputDir)
		assert.Equal(t, "/data/lookup.db", cfg.LookupDB)
		assert.Equal(t, "/drops/ctd", cfg.CTD.Manufacturer)
		assert.Equal(t, "NUTNRA/manufacturer", cfg.Nutnr.Manufacturer,
			"unset keys keep their defaults")
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calparse.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output_dir: [\n"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
