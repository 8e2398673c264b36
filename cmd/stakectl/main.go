// Copyright (c) 2018 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/leafstake/leafstake/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "stakectl")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakectl",
		Usage:     "Plan and follow leaf staking contracts",
		Copyright: "2025 The Leafstake developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			ledgerURLFlag,
			projectIDFlag,
			networkFlag,
			blueprintFlag,
			verbosityFlag,
			jsonLogsFlag,
			ntpFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "sync",
				Usage:  "refresh the output cache from the ledger and rewrite the snapshots",
				Action: syncAction,
			},
			{
				Name:   "contracts",
				Usage:  "list the running contracts",
				Flags:  []cli.Flag{ownerFlag, policyFlag, offlineFlag},
				Action: contractsAction,
			},
			{
				Name:      "inspect",
				Usage:     "dump a contract and its leaves",
				ArgsUsage: "<contract hash>",
				Flags:     []cli.Flag{offlineFlag},
				Action:    inspectAction,
			},
			{
				Name:      "plan",
				Usage:     "print the unsigned template of a transition",
				ArgsUsage: "<op> [contract hash]",
				Flags:     []cli.Flag{addressFlag, paymentHashFlag, leafFlag, paramsFlag, offlineFlag},
				Action:    planAction,
			},
			{
				Name:  "serve",
				Usage: "serve the read and plan API, syncing in the background",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
				},
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
