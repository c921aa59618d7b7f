package launcher

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/opera-remasc/flags"
	"github.com/rony4d/opera-remasc/integration"
	"github.com/rony4d/opera-remasc/opera"
)

// runConfigFromArgs runs MakeAllConfigs with a synthetic CLI context.
func runConfigFromArgs(t *testing.T, args []string) (Config, error) {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = flags.Merge(flags.CommonFlags(), flags.NetworkFlags(), flags.NodeFlags(), flags.ReplayFlags())

	var (
		got    Config
		cfgErr error
	)
	app.Action = func(c *cli.Context) error {
		got, cfgErr = MakeAllConfigs(c)
		return nil
	}

	if err := app.Run(append([]string{"opera-remasc"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return got, cfgErr
}

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "remasc-launcher")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestMakeAllConfigs_defaults(t *testing.T) {
	dir := tempDir(t)
	cfg, err := runConfigFromArgs(t, []string{"--datadir", dir})
	require.NoError(t, err)

	require.Equal(t, dir, cfg.Node.DataDir)
	require.Equal(t, "opera-remasc", cfg.Node.Name)
	require.Equal(t, "fake", cfg.Opera.NetworkName)
	require.Equal(t, opera.FakeNetRules(), cfg.Opera.Rules)
	require.Equal(t, "default", cfg.Store.Name)
	require.Equal(t, integration.BackendLevelDB, cfg.Store.Backend)
	require.Equal(t, 3, cfg.Node.Logging.Verbosity)
	require.Empty(t, cfg.Replay.BlocksFile)
}

// TestMakeAllConfigs_flagOverrides verifies that every command-line flag
// overrides the corresponding field of the aggregated Config.
func TestMakeAllConfigs_flagOverrides(t *testing.T) {
	dir := tempDir(t)
	protocol := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg Config)
	}{
		{
			name: "datadir and identity",
			args: []string{"--datadir", filepath.Join(dir, "node-data"), "--identity", "replay-1"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, filepath.Join(dir, "node-data"), cfg.Node.DataDir)
				require.Equal(t, "replay-1", cfg.Node.Name)
				_, err := os.Stat(cfg.Node.DataDir)
				require.NoError(t, err, "on-disk presets create the datadir")
			},
		},
		{
			name: "logging",
			args: []string{"--datadir", dir, "--log.format", "json", "--log.verbosity", "5", "--log.color", "--sentry.dsn", "https://key@sentry.example.com/1"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, LoggingConfig{Verbosity: 5, Format: "json", Color: true, SentryDSN: "https://key@sentry.example.com/1"}, cfg.Node.Logging)
			},
		},
		{
			name: "network preset",
			args: []string{"--datadir", dir, "--network", "testnet"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, "test", cfg.Opera.NetworkName)
				require.Equal(t, opera.TestNetRules(), cfg.Opera.Rules)
			},
		},
		{
			name: "single settlement parameters",
			args: []string{
				"--datadir", dir, "--network", "main",
				"--remasc.maturity", "12", "--remasc.span", "7", "--remasc.minheight", "3",
				"--remasc.protocoldiv", "4", "--remasc.publisherdiv", "8", "--remasc.punishdiv", "9",
				"--remasc.latediv", "11", "--remasc.protocol", protocol.Hex(),
			},
			want: func(t *testing.T, cfg Config) {
				r := cfg.Opera.Rules.Remasc
				require.EqualValues(t, 12, r.MaturityDepth)
				require.EqualValues(t, 7, r.SyntheticSpan)
				require.EqualValues(t, 3, r.MinSettlementHeight)
				require.EqualValues(t, 4, r.ProtocolFeeDivisor)
				require.EqualValues(t, 8, r.PublisherFeeDivisor)
				require.EqualValues(t, 9, r.PunishmentDivisor)
				require.EqualValues(t, 11, r.LateInclusionDivisor)
				require.Equal(t, protocol, r.ProtocolFeeAddress)
				require.Equal(t, "main", cfg.Opera.Rules.Name)
			},
		},
		{
			name: "storage preset and sizes",
			args: []string{"--datadir", dir, "--preset", "lite", "--cache", "100"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, "lite", cfg.Store.Name)
				require.Equal(t, 100, cfg.Store.CacheMB)
				require.Equal(t, integration.LitePreset().Handles, cfg.Store.Handles)
			},
		},
		{
			name: "memory preset skips the datadir",
			args: []string{"--datadir", filepath.Join(dir, "never"), "--preset", "memory"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, integration.BackendMemory, cfg.Store.Backend)
				_, err := os.Stat(filepath.Join(dir, "never"))
				require.True(t, os.IsNotExist(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := runConfigFromArgs(t, tt.args)
			require.NoError(t, err)
			tt.want(t, cfg)
		})
	}
}

func TestMakeAllConfigs_rejects(t *testing.T) {
	dir := tempDir(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown network", []string{"--network", "regtest"}},
		{"unknown preset", []string{"--preset", "archive"}},
		{"bad protocol address", []string{"--remasc.protocol", "0x1234"}},
		{"zero divisor", []string{"--remasc.protocoldiv", "0"}},
		{"missing config file", []string{"--config", filepath.Join(dir, "missing.json")}},
		{"missing rules file", []string{"--rules", filepath.Join(dir, "missing.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runConfigFromArgs(t, append([]string{"--datadir", dir}, tt.args...))
			require.Error(t, err)
		})
	}

	_, err := runConfigFromArgs(t, []string{"--datadir", dir, "--remasc.span", "0"})
	require.True(t, errors.Is(err, opera.ErrZeroDivisor))
}

func TestMakeAllConfigs_files(t *testing.T) {
	dir := tempDir(t)

	rules := opera.FakeNetRules()
	rules.Remasc.SyntheticSpan = 3
	rulesFile := filepath.Join(dir, "rules.json")
	require.NoError(t, ioutil.WriteFile(rulesFile, []byte(rules.String()), 0o644))

	configFile := filepath.Join(dir, "config.json")
	require.NoError(t, ioutil.WriteFile(configFile, []byte(`{"Node": {"Name": "from-file"}, "Replay": {"Watch": ["0x01"]}}`), 0o644))

	cfg, err := runConfigFromArgs(t, []string{
		"--datadir", dir, "--config", configFile, "--rules", rulesFile,
		"--remasc.punishdiv", "2", "--watch", "0x02, 0x03", "--watch", "0x04",
	})
	require.NoError(t, err)

	require.Equal(t, "from-file", cfg.Node.Name)
	require.EqualValues(t, 3, cfg.Opera.Rules.Remasc.SyntheticSpan, "rules file")
	require.EqualValues(t, 2, cfg.Opera.Rules.Remasc.PunishmentDivisor, "flags win over the rules file")
	require.Equal(t, []string{"0x01", "0x02", "0x03", "0x04"}, cfg.Replay.Watch)
}

func TestSplitCSV(t *testing.T) {
	require.Nil(t, splitCSV(""))
	require.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
}

func TestResolvePath(t *testing.T) {
	require.Equal(t, "/abs/dir", resolvePath("/abs/dir"))
	require.Equal(t, filepath.Join(GuessHomeDir(), ".opera-remasc"), resolvePath("~/.opera-remasc"))
	require.Equal(t, filepath.Join(GuessWorkDir(), "rel"), resolvePath("rel"))
}
