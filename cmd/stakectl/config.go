// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/staking"
)

const (
	defaultLedgerURL    = "https://cardano-preprod.blockfrost.io/api/v0"
	defaultNetwork      = "preprod"
	defaultBlueprint    = "plutus.json"
	defaultAPIAddr      = "localhost:8670"
	defaultSyncInterval = 30 * time.Second
)

// Duration reads human readable durations such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.New("duration must be a string")
	}
	if value.Value == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", value.Value)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Config is the file configuration. Flags given on the command line take
// precedence over it.
type Config struct {
	LedgerURL    string   `yaml:"ledger_url"`
	ProjectID    string   `yaml:"project_id"`
	Network      string   `yaml:"network"`
	Blueprint    string   `yaml:"blueprint"`
	Skew         Duration `yaml:"skew"`
	NTPServer    string   `yaml:"ntp_server"`
	APIAddr      string   `yaml:"api_addr"`
	SyncInterval Duration `yaml:"sync_interval"`
	DatumCache   int      `yaml:"datum_cache"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open config")
		}
		defer file.Close()
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LedgerURL == "" {
		c.LedgerURL = defaultLedgerURL
	}
	if c.Network == "" {
		c.Network = defaultNetwork
	}
	if c.Blueprint == "" {
		c.Blueprint = defaultBlueprint
	}
	if c.Skew.Duration == 0 {
		c.Skew.Duration = staking.DefaultSkew
	}
	if c.NTPServer == "" {
		c.NTPServer = clock.DefaultNTPServer
	}
	if c.APIAddr == "" {
		c.APIAddr = defaultAPIAddr
	}
	if c.SyncInterval.Duration == 0 {
		c.SyncInterval.Duration = defaultSyncInterval
	}
	if c.DatumCache <= 0 {
		c.DatumCache = staking.DefaultDatumCacheSize
	}
}

// override applies the flags set on the command line.
func (c *Config) override(ctx *cli.Context) {
	for _, o := range []struct {
		flag cli.StringFlag
		dst  *string
	}{
		{ledgerURLFlag, &c.LedgerURL},
		{projectIDFlag, &c.ProjectID},
		{networkFlag, &c.Network},
		{blueprintFlag, &c.Blueprint},
		{apiAddrFlag, &c.APIAddr},
	} {
		if v := flagString(ctx, o.flag.Name); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := staking.ParseNetwork(c.Network); err != nil {
		return err
	}
	if c.Skew.Duration < 0 {
		return errors.New("skew must not be negative")
	}
	if c.SyncInterval.Duration < time.Second {
		return errors.New("sync interval must be at least 1s")
	}
	return nil
}

// flagString reads a command flag, falling back to the global one.
func flagString(ctx *cli.Context, name string) string {
	if v := ctx.String(name); v != "" {
		return v
	}
	return ctx.GlobalString(name)
}
