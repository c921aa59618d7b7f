package launcher

import (
	"errors"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/opera-remasc/flags"
	"github.com/rony4d/opera-remasc/integration"
)

var app = newApp()

func newApp() *cli.App {
	app := flags.NewApp("fee settlement (REMASC) replay and inspection tool")
	app.Flags = flags.Merge(flags.CommonFlags(), flags.NetworkFlags(), flags.NodeFlags())
	app.Commands = []cli.Command{
		{
			Name:      "replay",
			Usage:     "Replay a block file through the settlement engine",
			ArgsUsage: "--blocks <file>",
			Flags:     flags.ReplayFlags(),
			Action:    replayCommand,
		},
		{
			Name:   "state",
			Usage:  "Print the persisted settlement state of the data directory",
			Flags:  flags.ReplayFlags(),
			Action: stateCommand,
		},
		{
			Name:   "rules",
			Usage:  "Print the effective network rules as JSON",
			Action: rulesCommand,
		},
	}
	return app
}

// Launch parses the arguments and runs the selected command.
func Launch(args []string) error {
	return app.Run(args)
}

func errWriter(ctx *cli.Context) io.Writer {
	if ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}

// prepare builds the config and the logger of a command.
func prepare(ctx *cli.Context) (Config, *logrus.Logger, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := setupLogging(cfg.Node.Logging, cfg.Node.Name, errWriter(ctx))
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func replayCommand(ctx *cli.Context) error {
	cfg, logger, err := prepare(ctx)
	if err != nil {
		return err
	}
	if cfg.Replay.BlocksFile == "" {
		return errors.New("replay: --blocks is required")
	}
	file, err := readBlockFile(cfg.Replay.BlocksFile)
	if err != nil {
		return err
	}

	chain, err := integration.MakeChain(cfg.Opera.Rules, cfg.Store, cfg.Node.DataDir, file.genesisBalances())
	if err != nil {
		return err
	}
	defer chain.Close()

	logger.WithFields(logrus.Fields{
		"network": cfg.Opera.Rules.Name,
		"blocks":  len(file.Blocks),
		"store":   cfg.Store.Name,
	}).Info("Replaying blocks")

	settled := 0
	for _, b := range file.Blocks {
		res, err := chain.ApplyBlock(b.toEvmBlock().ToBlock())
		if err != nil {
			logger.WithError(err).WithField("block", b.Number).Error("Replay stopped")
			return err
		}
		if res.Settlement != nil {
			settled++
		}
	}

	accounts := file.accounts()
	accounts = append(accounts, watched(cfg)...)
	rep := makeReport(chain, dedup(accounts))
	rep.Settled = settled
	return writeJSON(ctx.App.Writer, rep)
}

func stateCommand(ctx *cli.Context) error {
	cfg, _, err := prepare(ctx)
	if err != nil {
		return err
	}
	if cfg.Store.Backend == integration.BackendMemory {
		return errors.New("state: the memory preset has no persisted state")
	}
	chain, err := integration.MakeChain(cfg.Opera.Rules, cfg.Store, cfg.Node.DataDir, nil)
	if err != nil {
		return err
	}
	defer chain.Close()

	return writeJSON(ctx.App.Writer, makeReport(chain, dedup(watched(cfg))))
}

func rulesCommand(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	return writeJSON(ctx.App.Writer, cfg.Opera.Rules)
}

// watched returns the protocol and fee holder accounts plus the --watch list.
func watched(cfg Config) []common.Address {
	accounts := []common.Address{
		cfg.Opera.Rules.Remasc.ProtocolFeeAddress,
		cfg.Opera.Rules.Remasc.FeeHolderAddress,
	}
	for _, hex := range cfg.Replay.Watch {
		if common.IsHexAddress(hex) {
			accounts = append(accounts, common.HexToAddress(hex))
		}
	}
	return accounts
}

func dedup(accounts []common.Address) []common.Address {
	set := make(map[common.Address]struct{}, len(accounts))
	for _, a := range accounts {
		set[a] = struct{}{}
	}
	return sortedAddresses(set)
}
