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

// Package discovery advertises the dashboard and OSC ports over mDNS so
// phones and controllers on the same network can find the device.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const (
	// HTTPServiceType advertises the web dashboard.
	HTTPServiceType = "_http._tcp"
	// OSCServiceType advertises an OSC listener.
	OSCServiceType = "_osc._udp"
)

const (
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

// Interfaces created by container runtimes and VPNs are never advertised on.
var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

// Entry is one advertised service.
type Entry struct {
	Name string
	Type string
	Text []string
	Port int
}

func getPreferredInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}
	return filterInterfaces(allIfaces), nil
}

// filterInterfaces keeps interfaces that are up, non-loopback,
// multicast-capable and not virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lowerName := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	return false
}

// Service registers a set of entries. On a Pi that boots before WiFi is up
// the first registration usually fails, so Start keeps retrying in the
// background for a while.
type Service struct {
	cancelFunc   context.CancelFunc
	app          string
	instanceName string
	entries      []Entry
	servers      []*zeroconf.Server
	mu           syncutil.Mutex
	stopped      bool
}

// New returns a discovery service for app. An empty instanceName means the
// host name.
func New(app, instanceName string, entries ...Entry) *Service {
	return &Service{
		app:          app,
		instanceName: instanceName,
		entries:      entries,
	}
}

// Start registers every entry. Registration failures start a background
// retry loop rather than returning an error.
func (s *Service) Start() error {
	if len(s.entries) == 0 {
		return nil
	}
	s.instanceName = s.resolveInstanceName()

	if s.tryRegister() {
		return nil
	}

	log.Info().
		Dur("retryInterval", retryInterval).
		Dur("maxDuration", maxRetryDuration).
		Msg("mDNS registration failed, starting background retry (network may not be ready)")

	ctx, cancel := context.WithTimeout(context.Background(), maxRetryDuration)
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	go s.retryLoop(ctx)
	return nil
}

func (s *Service) tryRegister() bool {
	ifaces, err := getPreferredInterfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to get network interfaces")
		return false
	}
	if len(ifaces) == 0 {
		log.Debug().Msg("no suitable network interfaces found for mDNS")
		return false
	}

	servers := make([]*zeroconf.Server, 0, len(s.entries))
	for _, e := range s.entries {
		server, err := zeroconf.Register(
			s.entryName(e),
			e.Type,
			"local.",
			e.Port,
			append([]string{"app=" + s.app}, e.Text...),
			ifaces,
		)
		if err != nil {
			log.Debug().Err(err).Str("type", e.Type).Msg("mDNS registration attempt failed")
			for _, registered := range servers {
				registered.Shutdown()
			}
			return false
		}
		servers = append(servers, server)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		for _, server := range servers {
			server.Shutdown()
		}
		return false
	}
	s.servers = servers
	s.mu.Unlock()

	for _, e := range s.entries {
		log.Info().
			Str("instance", s.entryName(e)).
			Int("port", e.Port).
			Str("type", e.Type).
			Msg("mDNS service advertising started")
	}
	return true
}

func (s *Service) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.tryRegister() {
				log.Info().Msg("mDNS registration succeeded after retry")
				return
			}
		case <-ctx.Done():
			log.Warn().Msg("mDNS registration retry timed out, discovery will not be available")
			return
		}
	}
}

// Stop sends goodbye packets for every registered entry. Safe to call more
// than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	if len(s.servers) > 0 {
		log.Debug().Msg("stopping mDNS service advertising")
	}
	for _, server := range s.servers {
		server.Shutdown()
	}
	s.servers = nil
}

func (s *Service) InstanceName() string {
	return s.instanceName
}

func (s *Service) entryName(e Entry) string {
	if e.Name == "" {
		return s.instanceName
	}
	return s.instanceName + " " + e.Name
}

func (s *Service) resolveInstanceName() string {
	if s.instanceName != "" {
		return s.instanceName
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		log.Warn().Err(err).Msg("failed to get hostname, using fallback")
		return "inkterm-" + s.app
	}
	return hostname + " " + s.app
}
