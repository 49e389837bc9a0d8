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

package performance

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/queue"
)

const (
	NoteCapacity       = 10
	defaultBPM         = 120.0
	defaultScene       = "No Scene"
	defaultComposition = "No Composition"
)

type Note struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

type Ableton struct {
	Tracks  map[string]float64 `json:"track_volumes"`
	Scene   string             `json:"scene"`
	BPM     float64            `json:"bpm"`
	Time    float64            `json:"time"`
	Playing bool               `json:"playing"`
}

// Param is one TouchDesigner parameter, kept in arrival order.
type Param struct {
	Value any    `json:"value"`
	Name  string `json:"name"`
}

type TouchDesigner struct {
	Composition string  `json:"composition"`
	Params      []Param `json:"parameters"`
	FPS         float64 `json:"fps"`
}

// Snapshot is a copy of the performance state for one render.
type Snapshot struct {
	Setlist       Setlist       `json:"setlist"`
	Ableton       Ableton       `json:"ableton"`
	TouchDesigner TouchDesigner `json:"touchdesigner"`
	Notes         []Note        `json:"notes"`
	CurrentSong   int           `json:"current_song"`
}

// State is the live data fed by OSC and MQTT.
type State struct {
	notes       *queue.Bounded[Note]
	tracks      map[string]float64
	params      map[string]any
	setlist     Setlist
	paramOrder  []string
	scene       string
	composition string
	bpm         float64
	seconds     float64
	fps         float64
	currentSong int
	playing     bool
	mu          syncutil.RWMutex
}

func NewState() *State {
	return &State{
		notes:       queue.New[Note](NoteCapacity),
		tracks:      make(map[string]float64),
		params:      make(map[string]any),
		scene:       defaultScene,
		composition: defaultComposition,
		bpm:         defaultBPM,
	}
}

func (s *State) SetBPM(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm = v
}

// SetScene stores the scene name and reports whether it changed.
func (s *State) SetScene(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.scene != name
	s.scene = name
	return changed
}

func (s *State) SetPlaying(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = v
}

func (s *State) SetTime(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seconds = v
}

func (s *State) SetTrackVolume(track string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[track] = v
}

func (s *State) SetFPS(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = v
}

func (s *State) SetComposition(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composition = name
}

func (s *State) SetParam(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.params[name]; !ok {
		s.paramOrder = append(s.paramOrder, name)
	}
	s.params[name] = v
}

// AddNote keeps the newest NoteCapacity notes.
func (s *State) AddNote(n Note) {
	s.notes.Push(n)
}

func (s *State) ClearNotes() {
	s.notes.Clear()
}

// SetSetlist replaces the set list, keeping the cursor in range.
func (s *State) SetSetlist(sl Setlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setlist = sl
	s.currentSong = max(0, min(s.currentSong, len(sl.Songs)-1))
}

func (s *State) Setlist() Setlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Setlist{ShowName: s.setlist.ShowName, Songs: slices.Clone(s.setlist.Songs)}
}

// MoveSong shifts the set-list cursor by delta, clamped to the list.
func (s *State) MoveSong(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.setlist.Songs) == 0 {
		return 0
	}
	s.currentSong = max(0, min(s.currentSong+delta, len(s.setlist.Songs)-1))
	return s.currentSong
}

// MatchScene moves the cursor to the song best matching the current scene
// name. It reports the song index and whether one matched.
func (s *State) MatchScene(threshold float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := MatchSong(s.setlist.Songs, s.scene, threshold)
	if ok {
		s.currentSong = idx
	}
	return idx, ok
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	params := make([]Param, 0, len(s.paramOrder))
	for _, name := range s.paramOrder {
		params = append(params, Param{Name: name, Value: s.params[name]})
	}
	return Snapshot{
		Ableton: Ableton{
			BPM:     s.bpm,
			Scene:   s.scene,
			Playing: s.playing,
			Time:    s.seconds,
			Tracks:  maps.Clone(s.tracks),
		},
		TouchDesigner: TouchDesigner{
			FPS:         s.fps,
			Composition: s.composition,
			Params:      params,
		},
		Notes:       s.notes.Items(),
		Setlist:     Setlist{ShowName: s.setlist.ShowName, Songs: slices.Clone(s.setlist.Songs)},
		CurrentSong: s.currentSong,
	}
}

// TrackNames returns the track keys ordered by track number, numeric keys
// first.
func TrackNames(tracks map[string]float64) []string {
	names := slices.Collect(maps.Keys(tracks))
	slices.SortFunc(names, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return na - nb
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return names
}
