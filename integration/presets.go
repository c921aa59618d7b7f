package integration

import "fmt"

// Package integration provides configuration presets and assembly helpers for
// building a settlement chain: the account state, the settlement store and the
// engine on top of them. Presets bundle the storage settings (backend, cache
// sizes, file handles) into named profiles so operators can pick one with a
// single flag.
//
// Usage:
//   cfg := integration.MemoryPreset() // for tests and dry runs
//   cfg := integration.LitePreset()   // small on-disk replays
//   cfg := integration.FullPreset()   // long replays of a real chain
//
// Each preset returns a PresetConfig struct that can be merged into the
// launcher's main config during initialization.

// Storage backends
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
)

// PresetConfig captures the tunable parameters that vary across preset profiles.
type PresetConfig struct {
	Name    string // human-readable identifier (e.g., "lite", "full")
	Backend string // storage backend: "memory" or "leveldb"
	CacheMB int    // memory allocated to database caches, split between the state and settlement databases
	Handles int    // open file handles, split like CacheMB
}

// DefaultPreset returns the balanced on-disk configuration.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:    "default",
		Backend: BackendLevelDB,
		CacheMB: 512, // enough to keep the pending window of a mainnet chain hot
		Handles: 256,
	}
}

// MemoryPreset keeps everything in memory. Nothing survives the process.
//
// Use cases:
//   - Unit and integration tests
//   - Dry runs of a block file
func MemoryPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "memory"
	cfg.Backend = BackendMemory
	cfg.CacheMB = 0
	cfg.Handles = 0
	return cfg
}

// LitePreset returns a lightweight on-disk configuration for development and
// CI machines with little memory.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.CacheMB = 64
	cfg.Handles = 64
	return cfg
}

// FullPreset returns a configuration for replaying long chains, trading RAM
// for fewer disk reads.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.CacheMB = 2048
	cfg.Handles = 1024
	return cfg
}

// GetPresetByName looks up a preset by its string identifier and returns the
// corresponding PresetConfig. Returns an error if the name is unrecognized.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "memory":
		return MemoryPreset(), nil
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: memory, lite, full, default)", name)
	}
}

// ApplyPreset merges a preset configuration into an existing config struct.
// Fields set in the preset override the corresponding values in the target.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Backend != "" {
		target.Backend = preset.Backend
	}
	if preset.CacheMB > 0 || preset.Backend == BackendMemory {
		target.CacheMB = preset.CacheMB
	}
	if preset.Handles > 0 || preset.Backend == BackendMemory {
		target.Handles = preset.Handles
	}
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
