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

// Package helpers holds shared fixtures for package tests: config files on
// in-memory filesystems and a websocket test client.
package helpers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/inkterm/inkterm/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestConfigPath is where NewTestConfig writes the config file.
const TestConfigPath = "/etc/inkterm/config.json"

// FSHelper wraps an afero filesystem with fixture writers.
type FSHelper struct {
	Fs afero.Fs
}

func NewMemoryFS() *FSHelper {
	return &FSHelper{Fs: afero.NewMemMapFs()}
}

// CreateConfigFile writes cfg as a JSON config file, creating parent
// directories.
func (h *FSHelper) CreateConfigFile(path string, cfg map[string]any) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON: %w", err)
	}
	return h.WriteFile(path, data)
}

// CreateAuthFile writes an auth.toml next to the config file.
func (h *FSHelper) CreateAuthFile(configPath string, authData []byte) error {
	return h.WriteFile(filepath.Join(filepath.Dir(configPath), config.AuthFile), authData)
}

func (h *FSHelper) WriteFile(path string, content []byte) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// NewTestConfig loads a config from an in-memory filesystem. overrides is
// written as the config file when non-nil, otherwise the defaults are used.
func NewTestConfig(t *testing.T, defaults func() config.Values, overrides map[string]any) (*config.Instance, afero.Fs) {
	t.Helper()

	h := NewMemoryFS()
	if overrides != nil {
		require.NoError(t, h.CreateConfigFile(TestConfigPath, overrides))
	}
	cfg, err := config.NewConfig(h.Fs, TestConfigPath, defaults)
	require.NoError(t, err)
	return cfg, h.Fs
}
