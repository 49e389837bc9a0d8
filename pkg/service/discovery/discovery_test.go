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

package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_http._tcp", HTTPServiceType)
	assert.Equal(t, "_osc._udp", OSCServiceType)
}

func TestStopIdempotent(t *testing.T) {
	t.Parallel()

	svc := New("artframe", "", Entry{Type: HTTPServiceType, Port: 5000})
	svc.Stop()
	svc.Stop()
	assert.Nil(t, svc.servers)
}

func TestStartWithoutEntries(t *testing.T) {
	t.Parallel()

	svc := New("performance", "")
	assert.NoError(t, svc.Start())
	assert.Empty(t, svc.InstanceName())
	svc.Stop()
}

func TestResolveInstanceName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stage-left", New("performance", "stage-left").resolveInstanceName())
	assert.Contains(t, New("aprsdisplay", "").resolveInstanceName(), "aprsdisplay")
}

func TestEntryName(t *testing.T) {
	t.Parallel()

	svc := New("performance", "pi")
	svc.instanceName = "pi"
	assert.Equal(t, "pi", svc.entryName(Entry{Type: HTTPServiceType}))
	assert.Equal(t, "pi ableton", svc.entryName(Entry{Name: "ableton", Type: OSCServiceType}))
}

func TestFilterInterfaces(t *testing.T) {
	t.Parallel()

	ifaces := []net.Interface{
		{Name: "wlan0", Flags: net.FlagUp | net.FlagMulticast},
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback | net.FlagMulticast},
		{Name: "eth0", Flags: net.FlagMulticast},
		{Name: "usb0", Flags: net.FlagUp},
		{Name: "docker0", Flags: net.FlagUp | net.FlagMulticast},
		{Name: "wg0", Flags: net.FlagUp | net.FlagMulticast},
	}

	got := filterInterfaces(ifaces)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "wlan0", got[0].Name)
	}
}

func TestIsVirtualInterface(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"docker0": true,
		"VETH123": true,
		"br-abcd": true,
		"wlan0":   false,
		"eth0":    false,
	} {
		assert.Equal(t, want, isVirtualInterface(name), name)
	}
}
