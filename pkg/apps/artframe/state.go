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

package artframe

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/queue"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/rs/zerolog/log"
)

// Frame is one processed image, as shown on the panel and queued for the
// plotter.
type Frame struct {
	Received time.Time      `json:"received"`
	Bitmap   *render.Bitmap `json:"-"`
	ID       string         `json:"id"`
	Size     int            `json:"size"`
}

// State holds the current art and the plotter queue.
type State struct {
	current *Frame
	plotter *queue.Bounded[*Frame]
	images  int
	mu      syncutil.RWMutex
}

func NewState(plotterQueue int) *State {
	return &State{plotter: queue.New[*Frame](plotterQueue)}
}

// SetImage makes bmp the current art and queues it for the plotter,
// evicting the oldest queued frame when the queue is full.
func (s *State) SetImage(bmp *render.Bitmap, size int, now time.Time) *Frame {
	f := &Frame{
		ID:       uuid.NewString()[:8],
		Received: now,
		Size:     size,
		Bitmap:   bmp,
	}

	s.mu.Lock()
	s.current = f
	s.images++
	s.mu.Unlock()

	if dropped, evicted := s.plotter.Push(f); evicted {
		log.Debug().Str("id", dropped.ID).Msg("plotter queue full, dropped oldest frame")
	}
	return f
}

// Clear forgets the current art. The image count and plotter queue are
// kept.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *State) Current() *Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Images counts frames received since start.
func (s *State) Images() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images
}

// Plotter is the queue of frames waiting for the plotter, oldest first.
func (s *State) Plotter() *queue.Bounded[*Frame] {
	return s.plotter
}
