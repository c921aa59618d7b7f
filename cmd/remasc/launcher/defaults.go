package launcher

// Defaults bundles the baseline configuration values the launcher will use
// before flags/config files override them.

type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Storage StorageDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level instance settings (datadir, identity).

type NodeDefaults struct {
	DataDir string //	Filesystem root where the state and settlement databases live. Changing it lets you keep several replays apart.
	Name    string //	Human-readable instance identity attached to every log line.
}

// NetworkDefaults holds the rules preset.
type NetworkDefaults struct {
	ChainName string //	Name of the rules preset (main, test, fake). The preset decides maturity depth, synthetic span and every divisor of the settlement.
}

// StorageDefaults configures database/cache behaviour.
type StorageDefaults struct {
	Preset      string //	Storage preset name (memory, lite, full, default); see integration.GetPresetByName.
	CacheSizeMB int    //	Memory (in megabytes) for database caches, split evenly between the state and settlement databases.
	Handles     int    //	Number of file handles the databases may open, split like the cache.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.opera-remasc",
			Name:    "opera-remasc",
		},
		Network: NetworkDefaults{
			ChainName: "fake",
		},
		Storage: StorageDefaults{
			Preset:      "default",
			CacheSizeMB: 512,
			Handles:     256,
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
