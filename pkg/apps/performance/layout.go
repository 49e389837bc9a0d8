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
	"fmt"

	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
)

const (
	ModeAbleton       modes.Mode = "ableton"
	ModeLevels        modes.Mode = "levels"
	ModeTouchDesigner modes.Mode = "touchdesigner"
	ModeNotes         modes.Mode = "notes"
	ModeMIDI          modes.Mode = "midi"
	ModeSetlist       modes.Mode = "setlist"
)

// Modes keeps the historical /companion/mode indices: 0 ableton through
// 4 midi. The set list came later and is last.
var Modes = []modes.Mode{ModeAbleton, ModeLevels, ModeTouchDesigner, ModeNotes, ModeMIDI, ModeSetlist}

const (
	nameWidth    = 25
	paramWidth   = 15
	tracksShown  = 6
	paramsShown  = 4
	notesShown   = 5
	noteTimeForm = "15:04"
)

func BuildLayout(snap *Snapshot, mode modes.Mode) *render.Layout {
	switch mode {
	case ModeLevels:
		return levelsLayout(snap)
	case ModeTouchDesigner:
		return touchDesignerLayout(snap)
	case ModeNotes:
		return notesLayout(snap)
	case ModeMIDI:
		return &render.Layout{
			Title: "MIDI Monitor",
			Lines: []string{"MIDI monitoring", "not yet implemented"},
		}
	case ModeSetlist:
		return setlistLayout(snap)
	default:
		return abletonLayout(snap)
	}
}

func abletonLayout(snap *Snapshot) *render.Layout {
	a := snap.Ableton
	status := "STOPPED"
	if a.Playing {
		status = "PLAYING"
	}
	secs := max(int(a.Time), 0)
	return &render.Layout{
		Title: "Ableton Mode",
		Lines: []string{
			fmt.Sprintf("BPM: %.1f", a.BPM),
			"Scene: " + render.Truncate(a.Scene, nameWidth),
			"Status: " + status,
			fmt.Sprintf("Time: %d:%02d", secs/60, secs%60),
		},
	}
}

func levelsLayout(snap *Snapshot) *render.Layout {
	l := &render.Layout{Title: "Audio Levels"}
	names := TrackNames(snap.Ableton.Tracks)
	if len(names) == 0 {
		l.Lines = []string{"No track data"}
		return l
	}
	for _, name := range names[:min(tracksShown, len(names))] {
		l.Meters = append(l.Meters, render.Meter{
			Label: "T" + name + ":",
			Value: snap.Ableton.Tracks[name],
		})
	}
	return l
}

func touchDesignerLayout(snap *Snapshot) *render.Layout {
	td := snap.TouchDesigner
	l := &render.Layout{
		Title: "TouchDesigner",
		Lines: []string{
			fmt.Sprintf("FPS: %.1f", td.FPS),
			"Comp: " + render.Truncate(td.Composition, nameWidth),
		},
	}
	for _, p := range td.Params[:min(paramsShown, len(td.Params))] {
		l.Lines = append(l.Lines, render.Clip(p.Name, paramWidth)+": "+render.FormatValue(p.Value))
	}
	return l
}

func notesLayout(snap *Snapshot) *render.Layout {
	l := &render.Layout{Title: "Performance Notes"}
	notes := snap.Notes
	if len(notes) == 0 {
		l.Lines = []string{"No notes"}
		return l
	}
	if len(notes) > notesShown {
		notes = notes[len(notes)-notesShown:]
	}
	for _, n := range notes {
		l.Lines = append(l.Lines, n.Time.Format(noteTimeForm)+": "+render.Clip(n.Text, nameWidth))
	}
	return l
}

func setlistLayout(snap *Snapshot) *render.Layout {
	sl := snap.Setlist
	title := sl.ShowName
	if title == "" {
		title = "Set List"
	}
	l := &render.Layout{Title: render.Truncate(title, nameWidth+5)}
	if len(sl.Songs) == 0 {
		l.Lines = []string{"No set list"}
		return l
	}

	cur := snap.CurrentSong
	song := sl.Songs[cur]
	now := fmt.Sprintf("%d/%d %s", cur+1, len(sl.Songs), render.Truncate(song.Title, nameWidth))
	l.Lines = append(l.Lines, now)
	if song.BPM > 0 {
		l.Lines = append(l.Lines, fmt.Sprintf("  %.0f BPM", song.BPM))
	}
	if song.Notes != "" {
		l.Lines = append(l.Lines, "  "+render.Truncate(song.Notes, nameWidth))
	}
	if cur+1 < len(sl.Songs) {
		l.Lines = append(l.Lines, "Next: "+render.Truncate(sl.Songs[cur+1].Title, nameWidth))
	} else {
		l.Lines = append(l.Lines, "Last song")
	}
	return l
}
