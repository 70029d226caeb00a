// Package config loads engine.Config from a TOML document, the way
// spec.md §6 describes ("Engine configuration... supplied at
// construction"), with sane defaults and flag-style overrides for the
// CLI.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/maemo32/tomasulo/engine"
)

// File is the on-disk TOML shape. Field names match the keys a user
// would write in a config file; they are translated into
// engine.Config's Go-idiomatic field names by Load.
type File struct {
	AddSubStations int `toml:"add_sub_stations"`
	MulDivStations int `toml:"mul_div_stations"`
	MemStations    int `toml:"mem_stations"`
	BranchStations int `toml:"branch_stations"`

	AddSubLatency int `toml:"add_sub_latency"`
	MulLatency    int `toml:"mul_latency"`
	DivLatency    int `toml:"div_latency"`
	LoadLatency   int `toml:"load_latency"`
	StoreLatency  int `toml:"store_latency"`
	BranchLatency int `toml:"branch_latency"`

	ROBSize int `toml:"rob_size"`
}

// Load reads a TOML file at path and returns the engine.Config it
// describes. Keys absent from the file keep engine.DefaultConfig()'s
// values; a key set to 0 or less fails engine.Config.Validate(). A path
// that does not exist yields the defaults.
func Load(path string) (engine.Config, error) {
	defaults := engine.DefaultConfig()
	f := File{
		AddSubStations: defaults.AddSubStations,
		MulDivStations: defaults.MulDivStations,
		MemStations:    defaults.MemStations,
		BranchStations: defaults.BranchStations,
		AddSubLatency:  defaults.AddSubLatency,
		MulLatency:     defaults.MulLatency,
		DivLatency:     defaults.DivLatency,
		LoadLatency:    defaults.LoadLatency,
		StoreLatency:   defaults.StoreLatency,
		BranchLatency:  defaults.BranchLatency,
		ROBSize:        defaults.ROBSize,
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return engine.Config{}, errors.Wrapf(err, "config: stat %s", path)
	}

	if _, err := toml.DecodeFile(path, &f); err != nil {
		return engine.Config{}, errors.Wrapf(err, "config: decode %s", path)
	}

	cfg := engine.Config{
		AddSubStations: f.AddSubStations,
		MulDivStations: f.MulDivStations,
		MemStations:    f.MemStations,
		BranchStations: f.BranchStations,
		AddSubLatency:  f.AddSubLatency,
		MulLatency:     f.MulLatency,
		DivLatency:     f.DivLatency,
		LoadLatency:    f.LoadLatency,
		StoreLatency:   f.StoreLatency,
		BranchLatency:  f.BranchLatency,
		ROBSize:        f.ROBSize,
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, errors.Wrap(err, "config: invalid")
	}
	return cfg, nil
}
