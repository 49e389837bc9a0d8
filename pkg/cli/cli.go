// Inkterm
// Copyright (c) 2026 The Inkterm Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Inkterm.
//
// Inkterm is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Inkterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Inkterm.  If not, see <http://www.gnu.org/licenses/>.

// Package cli holds the process plumbing shared by the three daemons:
// flags, config and logging setup, and the runtime that wires a source app
// to the display, dashboard and mDNS.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/inkterm/inkterm/internal/telemetry"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Flags struct {
	Config  *string
	Version *bool
	Debug   *bool
	Once    *string
	set     *flag.FlagSet
}

// SetupFlags defines the flags every daemon accepts on set. A nil set means
// the process command line.
func SetupFlags(set *flag.FlagSet) *Flags {
	if set == nil {
		set = flag.CommandLine
	}
	return &Flags{
		set: set,
		Config: set.String(
			"config",
			config.CfgFile,
			"path to the JSON config file",
		),
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Once: set.String(
			"once",
			"",
			"render one frame to this PNG file and exit",
		),
	}
}

// Parse parses args and handles -version. It reports whether the process
// should keep going.
func (f *Flags) Parse(app string, args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return false, fmt.Errorf("failed to parse flags: %w", err)
	}
	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", app, config.AppVersion)
		return false, nil
	}
	return true, nil
}

// Setup loads the config and points logging (and telemetry, when a DSN is
// configured) at it. Config errors are returned for the caller to exit on.
func Setup(app string, flags *Flags, fs afero.Fs, defaults func() config.Values) (*config.Instance, error) {
	cfg, err := config.NewConfig(fs, *flags.Config, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if *flags.Debug {
		cfg.SetDebugLogging(true)
	}

	vals := cfg.Values()
	console := zerolog.ConsoleWriter{Out: os.Stderr}
	if err := helpers.InitLogging(app, vals.Logging.File, cfg.DebugLogging(), console); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := telemetry.Init(vals.Telemetry.SentryDSN, app, config.AppVersion); err != nil {
		log.Warn().Err(err).Msg("error reporting unavailable")
	}

	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Msgf("starting %s", app)
	return cfg, nil
}
