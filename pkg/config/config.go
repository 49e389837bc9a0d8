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

// Package config loads the JSON settings file shared by the three inkterm
// daemons. Values are decoded on top of per-app defaults, so any key the
// file leaves out keeps its default and unknown keys are ignored.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	CfgEnv   = "INKTERM_CFG"
	CfgFile  = "config.json"
	AuthFile = "auth.toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Instance struct {
	fs       afero.Fs
	defaults func() Values
	cfgPath  string
	authPath string
	vals     Values
	mu       syncutil.RWMutex
}

var authCfg atomic.Value

// GetAuthCfg returns the credentials loaded from auth.toml, if any.
func GetAuthCfg() map[string]CredentialEntry {
	val, ok := authCfg.Load().(map[string]CredentialEntry)
	if !ok {
		return nil
	}
	return val
}

// NewConfig loads cfgPath (or $INKTERM_CFG when set) from fs. A missing file
// is created from the defaults. A nil fs means the OS filesystem.
func NewConfig(fs afero.Fs, cfgPath string, defaults func() Values) (*Instance, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if env := os.Getenv(CfgEnv); env != "" {
		log.Debug().Msgf("env config path: %s", env)
		cfgPath = env
	}
	if cfgPath == "" {
		cfgPath = CfgFile
	}

	cfg := &Instance{
		fs:       fs,
		defaults: defaults,
		cfgPath:  cfgPath,
		authPath: filepath.Join(filepath.Dir(cfgPath), AuthFile),
		vals:     defaults(),
	}

	if _, err := fs.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		log.Warn().Msgf("config file not found: %s, creating default config", cfgPath)
		if err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load re-reads the config file and auth file.
func (c *Instance) Load() error {
	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals, err := Decode(data, c.defaults)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.vals = newVals
	c.mu.Unlock()

	if authData, err := afero.ReadFile(c.fs, c.authPath); err == nil {
		creds := LoadAuthFromData(authData)
		log.Info().Msgf("loaded %d auth entries", len(creds))
		authCfg.Store(creds)
	}

	return nil
}

// Decode parses a JSON document on top of fresh defaults and validates the
// result.
func Decode(data []byte, defaults func() Values) (Values, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Values{}, fmt.Errorf("failed to parse config: %w", err)
	}
	normalizeRaw(raw)

	vals := defaults()
	clearOverriddenLists(raw, &vals)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &vals,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Values{}, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Values{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&vals); err != nil {
		return Values{}, err
	}
	return vals, nil
}

// normalizeRaw folds the older key layouts written by earlier versions of
// the tools into the current one.
func normalizeRaw(raw map[string]any) {
	if processing, ok := raw["processing"].(map[string]any); ok {
		ip, _ := raw["image_processing"].(map[string]any)
		if ip == nil {
			ip = map[string]any{}
		}
		for k, v := range processing {
			if _, set := ip[k]; !set {
				ip[k] = v
			}
		}
		raw["image_processing"] = ip
		delete(raw, "processing")

		if interval, ok := processing["refresh_interval"]; ok {
			display := ensureMap(raw, "display")
			if _, set := display["refresh_interval"]; !set {
				display["refresh_interval"] = interval
			}
		}
	}

	if display, ok := raw["display"].(map[string]any); ok {
		if rate, ok := display["refresh_rate"]; ok {
			if _, set := display["refresh_interval"]; !set {
				display["refresh_interval"] = rate
			}
		}
		if rotate, ok := display["auto_rotate"]; ok {
			if _, set := display["auto_rotate_modes"]; !set {
				display["auto_rotate_modes"] = rotate
			}
		}
	}

	if aprsIS, ok := raw["aprs_is"].(map[string]any); ok {
		if _, set := aprsIS["servers"]; !set {
			if server, ok := aprsIS["server"].(string); ok && server != "" {
				if port, ok := aprsIS["port"]; ok && !strings.Contains(server, ":") {
					server = net.JoinHostPort(server, fmt.Sprint(port))
				}
				aprsIS["servers"] = []any{server}
			}
		}
	}
}

// clearOverriddenLists drops default list values the file replaces, so a
// shorter list in the file is not merged with the default entries.
func clearOverriddenLists(raw map[string]any, vals *Values) {
	if sources, ok := raw["sources"].(map[string]any); ok {
		if mqtt, ok := sources["mqtt"].(map[string]any); ok {
			if _, set := mqtt["topics"]; set {
				vals.Sources.MQTT.Topics = nil
			}
		}
	}
	if aprsIS, ok := raw["aprs_is"].(map[string]any); ok {
		if _, set := aprsIS["servers"]; set {
			vals.APRSIS.Servers = nil
		}
	}
	if web, ok := raw["web"].(map[string]any); ok {
		if _, set := web["allowed_origins"]; set {
			vals.Web.AllowedOrigins = nil
		}
		if _, set := web["allowed_ips"]; set {
			vals.Web.AllowedIPs = nil
		}
	}
}

func ensureMap(raw map[string]any, key string) map[string]any {
	m, ok := raw[key].(map[string]any)
	if !ok {
		m = map[string]any{}
		raw[key] = m
	}
	return m
}

// Save writes the current values to the config file as indented JSON.
func (c *Instance) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(&c.vals, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Update validates and replaces the in-memory values. Running daemons keep
// using what they were started with, callers save and ask for a restart.
//
//nolint:gocritic // config struct copied for immutability
func (c *Instance) Update(vals Values) error {
	if err := Validate(&vals); err != nil {
		return err
	}
	c.mu.Lock()
	c.vals = vals
	c.mu.Unlock()
	return nil
}

// Values returns a copy of the current settings.
func (c *Instance) Values() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.vals
	v.Sources.MQTT.Topics = append([]string(nil), c.vals.Sources.MQTT.Topics...)
	v.APRSIS.Servers = append([]string(nil), c.vals.APRSIS.Servers...)
	v.Web.AllowedOrigins = append([]string(nil), c.vals.Web.AllowedOrigins...)
	v.Web.AllowedIPs = append([]string(nil), c.vals.Web.AllowedIPs...)
	return v
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) Display() Display {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Logging.Debug
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Logging.Debug = enabled
}

// RefreshInterval is the render loop period.
func (c *Instance) RefreshInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return seconds(c.vals.Display.RefreshInterval)
}

// ModeDuration is the auto-rotation period, zero when rotation is off.
func (c *Instance) ModeDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.vals.Display.AutoRotateModes {
		return 0
	}
	return seconds(c.vals.Display.ModeDuration)
}

// MQTTBroker returns the art frame broker as host:port.
func (c *Instance) MQTTBroker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return brokerAddress(c.vals.MQTT.Broker, c.vals.MQTT.Port)
}

// SourceMQTTBroker returns the performance companion broker as host:port.
func (c *Instance) SourceMQTTBroker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return brokerAddress(c.vals.Sources.MQTT.Broker, c.vals.Sources.MQTT.Port)
}

func brokerAddress(broker string, port int) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if _, _, err := net.SplitHostPort(broker); err == nil {
		return broker
	}
	return net.JoinHostPort(broker, strconv.Itoa(port))
}

// APRSLogin returns the station login, CALL or CALL-SSID.
func (c *Instance) APRSLogin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	call := strings.ToUpper(strings.TrimSpace(c.vals.Station.Callsign))
	ssid := strings.TrimSpace(c.vals.Station.SSID)
	if ssid == "" || ssid == "0" {
		return call
	}
	return call + "-" + ssid
}

// APRSServers returns the configured APRS-IS servers, host:port each.
func (c *Instance) APRSServers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	servers := make([]string, 0, len(c.vals.APRSIS.Servers))
	for _, s := range c.vals.APRSIS.Servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "14580")
		}
		servers = append(servers, s)
	}
	if len(servers) == 0 {
		servers = append(servers, DefaultAPRSServer)
	}
	return servers
}

func (c *Instance) APRSReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return seconds(c.vals.APRSIS.ReadTimeout)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
