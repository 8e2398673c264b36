// Copyright (c) 2018 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/leafstake/leafstake/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for contract snapshots and the output cache",
	}
	ledgerURLFlag = cli.StringFlag{
		Name:  "ledger-url",
		Usage: "base URL of the ledger indexer API",
	}
	projectIDFlag = cli.StringFlag{
		Name:   "project-id",
		Usage:  "project id sent to the ledger indexer",
		EnvVar: "LEAFSTAKE_PROJECT_ID",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "the network of the script address (mainnet|preprod|preview)",
	}
	blueprintFlag = cli.StringFlag{
		Name:  "blueprint",
		Usage: "path to the compiled validator blueprint (plutus.json)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "exposes the log level and health endpoints under /admin",
	}
	ntpFlag = cli.BoolFlag{
		Name:  "ntp",
		Usage: "correct the local clock against the configured NTP server",
	}

	// plan
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "address of the party the transition is planned for",
	}
	paymentHashFlag = cli.StringFlag{
		Name:  "payment-hash",
		Usage: "payment credential hash of the party, hex",
	}
	leafFlag = cli.StringFlag{
		Name:  "leaf",
		Usage: "name of the leaf for asset operations",
	}
	paramsFlag = cli.StringFlag{
		Name:  "params",
		Usage: "JSON file with create or renew parameters",
	}

	// contracts
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "only list contracts of this owner hash, hex",
	}
	policyFlag = cli.StringFlag{
		Name:  "policy",
		Usage: "only list contracts staking this policy, hex",
	}
	offlineFlag = cli.BoolFlag{
		Name:  "offline",
		Usage: "rebuild from the cached outputs instead of the ledger",
	}
)
