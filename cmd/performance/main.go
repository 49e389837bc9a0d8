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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/inkterm/inkterm/internal/telemetry"
	"github.com/inkterm/inkterm/pkg/apps/performance"
	"github.com/inkterm/inkterm/pkg/cli"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/display"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(nil)
	if ok, err := flags.Parse(performance.AppName, os.Args[1:], os.Stdout); !ok {
		return err
	}

	fs := afero.NewOsFs()
	cfg, err := cli.Setup(performance.AppName, flags, fs, config.PerformanceDefaults)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			telemetry.Flush()
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	opts := cli.RuntimeOptions{Fs: fs}
	if *flags.Once != "" {
		d := cfg.Display()
		opts.Sink = display.NewFile(fs, *flags.Once, d.Width, d.Height)
	}
	app := performance.New(cfg, performance.Options{})
	for _, src := range app.OSCSources() {
		log.Info().Msgf("%s OSC on %s:%d", src.Name, src.Addr, src.Port)
	}
	rt := cli.NewRuntime(cfg, app, opts)

	if *flags.Once != "" {
		return rt.Once(context.Background())
	}
	return cli.Main(rt)
}
