// This file maps CLI context and config files to the launcher config struct.

package launcher

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/opera-remasc/integration"
	"github.com/rony4d/opera-remasc/opera"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node   NodeConfig
	Opera  OperaConfig
	Store  integration.PresetConfig
	Replay ReplayConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	Logging LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type OperaConfig struct {
	NetworkName string
	Rules       opera.Rules
}

type ReplayConfig struct {
	BlocksFile string
	Watch      []string
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

func defaultConfig() Config {
	defaults := DefaultConfig()

	rules, err := opera.RulesByName(defaults.Network.ChainName)
	if err != nil {
		panic(err)
	}
	store, err := integration.GetPresetByName(defaults.Storage.Preset)
	if err != nil {
		panic(err)
	}
	store.CacheMB = defaults.Storage.CacheSizeMB
	store.Handles = defaults.Storage.Handles

	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(defaults.Node.DataDir),
			Name:    defaults.Node.Name,
			Logging: LoggingConfig{
				Verbosity: defaults.Logging.Verbosity,
				Format:    defaults.Logging.Format,
				Color:     defaults.Logging.Color,
			},
		},
		Opera: OperaConfig{
			NetworkName: defaults.Network.ChainName,
			Rules:       rules,
		},
		Store: store,
	}
}

// MakeAllConfigs merges defaults, config-file values, and CLI overrides into
// a single config struct, then validates the resulting rules.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Opera.Rules.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Store.Backend != integration.BackendMemory {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	return loadJSON(path, cfg)
}

func loadJSON(path string, v interface{}) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.GlobalIsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.GlobalString("datadir"))
	}
	if ctx.GlobalIsSet("identity") {
		cfg.Node.Name = ctx.GlobalString("identity")
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Node.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Node.Logging.Color = ctx.GlobalBool("log.color")
	}
	if ctx.GlobalIsSet("sentry.dsn") {
		cfg.Node.Logging.SentryDSN = ctx.GlobalString("sentry.dsn")
	}

	if ctx.GlobalIsSet("preset") {
		preset, err := integration.GetPresetByName(ctx.GlobalString("preset"))
		if err != nil {
			return err
		}
		integration.ApplyPreset(&cfg.Store, preset)
	}
	if ctx.GlobalIsSet("cache") {
		cfg.Store.CacheMB = ctx.GlobalInt("cache")
	}
	if ctx.GlobalIsSet("handles") {
		cfg.Store.Handles = ctx.GlobalInt("handles")
	}

	if err := applyRulesOverrides(ctx, cfg); err != nil {
		return err
	}

	if ctx.IsSet("blocks") {
		cfg.Replay.BlocksFile = resolvePath(ctx.String("blocks"))
	}
	if ctx.IsSet("watch") {
		cfg.Replay.Watch = append(cfg.Replay.Watch, splitCSV(strings.Join(ctx.StringSlice("watch"), ","))...)
	}
	return nil
}

// applyRulesOverrides layers the network preset, a rules file and single
// parameter flags, in this order.
func applyRulesOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.GlobalIsSet("network") {
		rules, err := opera.RulesByName(ctx.GlobalString("network"))
		if err != nil {
			return err
		}
		cfg.Opera.NetworkName = rules.Name
		cfg.Opera.Rules = rules
	}
	if file := ctx.GlobalString("rules"); file != "" {
		if err := loadJSON(resolvePath(file), &cfg.Opera.Rules); err != nil {
			return fmt.Errorf("failed to load rules file %s: %w", file, err)
		}
	}

	r := &cfg.Opera.Rules.Remasc
	if ctx.GlobalIsSet("remasc.maturity") {
		r.MaturityDepth = idx.Block(ctx.GlobalUint64("remasc.maturity"))
	}
	if ctx.GlobalIsSet("remasc.span") {
		r.SyntheticSpan = ctx.GlobalUint64("remasc.span")
	}
	if ctx.GlobalIsSet("remasc.minheight") {
		r.MinSettlementHeight = idx.Block(ctx.GlobalUint64("remasc.minheight"))
	}
	if ctx.GlobalIsSet("remasc.protocoldiv") {
		r.ProtocolFeeDivisor = ctx.GlobalUint64("remasc.protocoldiv")
	}
	if ctx.GlobalIsSet("remasc.publisherdiv") {
		r.PublisherFeeDivisor = ctx.GlobalUint64("remasc.publisherdiv")
	}
	if ctx.GlobalIsSet("remasc.punishdiv") {
		r.PunishmentDivisor = ctx.GlobalUint64("remasc.punishdiv")
	}
	if ctx.GlobalIsSet("remasc.latediv") {
		r.LateInclusionDivisor = ctx.GlobalUint64("remasc.latediv")
	}
	if ctx.GlobalIsSet("remasc.protocol") {
		addr := ctx.GlobalString("remasc.protocol")
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid protocol fee address: %q", addr)
		}
		r.ProtocolFeeAddress = common.HexToAddress(addr)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
