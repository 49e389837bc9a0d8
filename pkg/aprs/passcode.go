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

package aprs

import (
	"strconv"
	"strings"
)

// Passcode computes the APRS-IS login passcode for callsign. Any SSID is
// ignored.
func Passcode(callsign string) int {
	call, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(callsign)), "-")
	hash := 0x73e2
	for i := 0; i < len(call); i += 2 {
		hash ^= int(call[i]) << 8
		if i+1 < len(call) {
			hash ^= int(call[i+1])
		}
	}
	return hash & 0x7fff
}

// ReadOnly reports whether passcode requests a receive-only login.
func ReadOnly(passcode string) bool {
	return strings.TrimSpace(passcode) == "-1" || strings.TrimSpace(passcode) == ""
}

// CheckPasscode reports whether passcode is the right one for callsign.
func CheckPasscode(callsign, passcode string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(passcode))
	if err != nil {
		return false
	}
	return n == Passcode(callsign)
}
