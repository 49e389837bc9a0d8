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

package aprsdisplay

import (
	"sort"
	"time"

	"github.com/inkterm/inkterm/pkg/aprs"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/queue"
)

// RecentCapacity is how many decoded packets are kept for the display.
const RecentCapacity = 100

// State is what the display knows about the APRS traffic seen since
// start. It is never persisted.
type State struct {
	started  time.Time
	recent   *queue.Bounded[*aprs.Packet]
	stations map[string]int
	formats  map[aprs.Format]int
	weather  *aprs.Packet
	total    int
	mu       syncutil.RWMutex
}

func NewState(started time.Time) *State {
	return &State{
		started:  started,
		recent:   queue.New[*aprs.Packet](RecentCapacity),
		stations: make(map[string]int),
		formats:  make(map[aprs.Format]int),
	}
}

// Record counts p and keeps it in the recent list.
func (s *State) Record(p *aprs.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent.Push(p)
	s.total++
	s.stations[p.From]++
	s.formats[p.Format]++
	if !p.Weather.Empty() {
		s.weather = p
	}
}

// Count is a name with a tally, used for the per-format and per-sender
// breakdowns.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is a copy of State for one render or API response.
type Snapshot struct {
	Started  time.Time
	Weather  *aprs.Packet
	Recent   []*aprs.Packet
	Formats  []Count
	Senders  []Count
	Total    int
	Stations int
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Started:  s.started,
		Weather:  s.weather,
		Recent:   s.recent.Items(),
		Total:    s.total,
		Stations: len(s.stations),
		Formats:  make([]Count, 0, len(s.formats)),
		Senders:  make([]Count, 0, len(s.stations)),
	}
	for f, n := range s.formats {
		snap.Formats = append(snap.Formats, Count{Name: string(f), Count: n})
	}
	for call, n := range s.stations {
		snap.Senders = append(snap.Senders, Count{Name: call, Count: n})
	}
	sortCounts(snap.Formats)
	sortCounts(snap.Senders)
	return snap
}

// sortCounts orders by count, highest first, then by name.
func sortCounts(c []Count) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].Name < c[j].Name
	})
}

// Uptime is the time since start as of now.
func (s Snapshot) Uptime(now time.Time) time.Duration {
	return now.Sub(s.Started)
}

// Rate is packets per hour, with the divisor floored at six minutes so the
// first packets do not show an absurd rate.
func (s Snapshot) Rate(now time.Time) float64 {
	hours := max(s.Uptime(now).Hours(), 0.1)
	return float64(s.Total) / hours
}
