// Package config holds the calparse runtime configuration: directory layout
// for the manufacturer drops, the calibration output tree and the lookup
// database. Loaded from a YAML file with sensible defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full calparse configuration.
type Config struct {
	// OutputDir is the root of the calibration CSV tree. One subdirectory
	// per instrument subtype or family.
	OutputDir string `yaml:"output_dir"`

	// LookupDB is the path of the serial to tracking id sqlite database.
	LookupDB string `yaml:"lookup_db"`

	CTD   FamilyDirs `yaml:"ctd"`
	Nutnr FamilyDirs `yaml:"nutnr"`
}

// FamilyDirs holds the per-family source and archive directories.
type FamilyDirs struct {
	// Manufacturer is the drop directory of vendor calibration files.
	Manufacturer string `yaml:"manufacturer"`

	// Archive receives processed files for families that archive instead of
	// delete.
	Archive string `yaml:"archive"`
}

// Default returns the configuration matching the conventional directory
// layout.
func Default() *Config {
	return &Config{
		OutputDir: "calibration",
		LookupDB:  "instrumentLookUp.db",
		CTD: FamilyDirs{
			Manufacturer: "CTD/manufacturer",
		},
		Nutnr: FamilyDirs{
			Manufacturer: "NUTNRA/manufacturer",
			Archive:      "NUTNRA/manufacturer_ARCHIVE",
		},
	}
}

// Load reads the YAML config at path, applied on top of the defaults. A
// missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
