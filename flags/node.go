package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local instance (identity, storage preset, caches).

func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom instance name used in logs",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Storage preset (memory|lite|full|default)",
			Value: "default",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to database caching",
			Value: 512,
		},
		cli.IntFlag{
			Name:  "handles",
			Usage: "Number of open file handles of the databases",
			Value: 256,
		},
	}
}

// ReplayFlags configure the input of the replay command.
func ReplayFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "blocks",
			Usage: "JSON file with the genesis balances and the blocks to replay",
		},
		cli.StringSliceFlag{
			Name:  "watch",
			Usage: "Account addresses whose balances are printed after the replay",
		},
	}
}
