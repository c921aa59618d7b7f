package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags selects the network rules and overrides single settlement parameters.

func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network rules preset (main|test|fake)",
			Value: "fake",
		},
		cli.StringFlag{
			Name:  "rules",
			Usage: "JSON file with the complete settlement rules (overrides --network values)",
		},
		cli.Uint64Flag{
			Name:  "remasc.maturity",
			Usage: "Number of blocks after which a height is settled",
		},
		cli.Uint64Flag{
			Name:  "remasc.span",
			Usage: "Synthetic span: each settlement pays 1/span of the reward pool",
		},
		cli.Uint64Flag{
			Name:  "remasc.minheight",
			Usage: "First height that is paid out",
		},
		cli.Uint64Flag{
			Name:  "remasc.protocoldiv",
			Usage: "Protocol fee divisor",
		},
		cli.Uint64Flag{
			Name:  "remasc.publisherdiv",
			Usage: "Publisher fee divisor",
		},
		cli.Uint64Flag{
			Name:  "remasc.punishdiv",
			Usage: "Selection rule punishment divisor",
		},
		cli.Uint64Flag{
			Name:  "remasc.latediv",
			Usage: "Late sibling inclusion punishment divisor",
		},
		cli.StringFlag{
			Name:  "remasc.protocol",
			Usage: "Protocol fee recipient address",
		},
	}
}
