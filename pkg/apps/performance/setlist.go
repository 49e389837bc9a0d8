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
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/spf13/afero"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

var ErrSetlist = errors.New("invalid set list")

// Song is one set-list entry. In the file it is either a bare title or an
// object with title, bpm and notes.
type Song struct {
	Title string  `json:"title" yaml:"title" validate:"required"`
	Notes string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	BPM   float64 `json:"bpm,omitempty" yaml:"bpm,omitempty" validate:"gte=0"`
}

type songFields Song

func (s *Song) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*s = Song{Title: title}
		return nil
	}
	var f songFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: song must be a title or an object: %w", ErrSetlist, err)
	}
	*s = Song(f)
	return nil
}

func (s *Song) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = Song{Title: node.Value}
		return nil
	}
	var f songFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("%w: song must be a title or a mapping: %w", ErrSetlist, err)
	}
	*s = Song(f)
	return nil
}

// Setlist is the show's running order.
type Setlist struct {
	ShowName string `json:"show_name" yaml:"show_name"`
	Songs    []Song `json:"set_list" yaml:"set_list" validate:"dive"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LoadSetlist reads a JSON or YAML set list, picked by file extension.
func LoadSetlist(fs afero.Fs, path string) (*Setlist, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read set list: %w", err)
	}
	return ParseSetlist(data, isYAML(path))
}

func ParseSetlist(data []byte, asYAML bool) (*Setlist, error) {
	var s Setlist
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		if errors.Is(err, ErrSetlist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSetlist, err)
	}
	return &s, nil
}

// SaveSetlist writes s in the format the path's extension asks for.
func SaveSetlist(fs afero.Fs, path string, s *Setlist) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode set list: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create set list directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write set list: %w", err)
	}
	return nil
}

// normalizeTitle folds case, width and diacritics so "Café Noir" matches a
// scene called "cafe noir".
func normalizeTitle(s string) string {
	t := transform.Chain(
		width.Fold,
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchSong returns the index of the song whose title is most similar to
// scene by normalized Levenshtein similarity, if any reaches threshold.
func MatchSong(songs []Song, scene string, threshold float64) (int, bool) {
	query := normalizeTitle(scene)
	if query == "" {
		return 0, false
	}

	best, bestScore := -1, float32(0)
	for i, song := range songs {
		title := normalizeTitle(song.Title)
		if title == "" {
			continue
		}
		score, err := edlib.StringsSimilarity(query, title, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || float64(bestScore) < threshold {
		return 0, false
	}
	return best, true
}
