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

// Package database keeps the APRS packet history on disk. It is a log for
// the dashboard only: the running display never reads its state back.
package database

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/inkterm/inkterm/pkg/aprs"
	"go.etcd.io/bbolt"
)

// DefaultMaxEntries bounds the history when no limit is given.
const DefaultMaxEntries = 10000

var (
	ErrClosed = errors.New("history database is closed")

	packetsBucket = []byte("packets")
)

// HistoryEntry is one stored packet.
type HistoryEntry struct {
	aprs.Packet
	ID uint64 `json:"id"`
}

// History is an append-only bbolt log of packets, trimmed to maxEntries
// oldest-first.
type History struct {
	db         *bbolt.DB
	maxEntries int
}

// OpenHistory opens or creates the history at path.
func OpenHistory(path string, maxEntries int) (*History, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(packetsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create packets bucket: %w", err)
	}

	return &History{db: db, maxEntries: maxEntries}, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Add stores p and drops the oldest entries over the limit.
func (h *History) Add(p *aprs.Packet) error {
	if h == nil || h.db == nil {
		return ErrClosed
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	err = h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(packetsBucket)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		if err := b.Put(itob(id), data); err != nil {
			return fmt.Errorf("put packet: %w", err)
		}

		c := b.Cursor()
		excess := count(c) - h.maxEntries
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return fmt.Errorf("trim history: %w", err)
			}
			excess--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store packet: %w", err)
	}
	return nil
}

// count relies on keys being a contiguous sequence, which holds because
// only the oldest entries are ever deleted.
func count(c *bbolt.Cursor) int {
	first, _ := c.First()
	if first == nil {
		return 0
	}
	last, _ := c.Last()
	return int(binary.BigEndian.Uint64(last)-binary.BigEndian.Uint64(first)) + 1
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	if h == nil || h.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return []HistoryEntry{}, nil
	}

	entries := make([]HistoryEntry, 0, min(limit, 256))
	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(packetsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e HistoryEntry
			if err := json.Unmarshal(v, &e.Packet); err != nil {
				return fmt.Errorf("decode packet %x: %w", k, err)
			}
			e.ID = binary.BigEndian.Uint64(k)
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored packets.
func (h *History) Count() (int, error) {
	if h == nil || h.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := h.db.View(func(tx *bbolt.Tx) error {
		n = count(tx.Bucket(packetsBucket).Cursor())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}
