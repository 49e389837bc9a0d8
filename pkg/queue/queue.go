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

// Package queue provides a fixed-capacity FIFO that evicts its oldest entry
// when full. It backs the recent-packet list, the plotter preview queue and
// the performance notes.
package queue

import "github.com/inkterm/inkterm/pkg/helpers/syncutil"

// Bounded is a ring buffer of at most Cap() items. The zero value is not
// usable, construct with New.
type Bounded[T any] struct {
	items []T
	head  int
	size  int
	mu    syncutil.RWMutex
}

// New returns an empty queue holding at most capacity items. A capacity
// below one is raised to one.
func New[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{items: make([]T, capacity)}
}

// Push appends v. When the queue is full the oldest item is dropped and
// returned with evicted set.
func (q *Bounded[T]) Push(v T) (dropped T, evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	capacity := len(q.items)
	if q.size == capacity {
		dropped = q.items[q.head]
		evicted = true
		q.items[q.head] = v
		q.head = (q.head + 1) % capacity
		return dropped, evicted
	}

	q.items[(q.head+q.size)%capacity] = v
	q.size++
	return dropped, false
}

// Pop removes and returns the oldest item.
func (q *Bounded[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return v, true
}

// Items returns a copy of the contents, oldest first.
func (q *Bounded[T]) Items() []T {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.lastLocked(q.size)
}

// Last returns up to n of the newest items, oldest first.
func (q *Bounded[T]) Last(n int) []T {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.lastLocked(n)
}

func (q *Bounded[T]) lastLocked(n int) []T {
	if n > q.size {
		n = q.size
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	start := q.head + q.size - n
	for i := range n {
		out[i] = q.items[(start+i)%len(q.items)]
	}
	return out
}

// Newest returns the most recently pushed item.
func (q *Bounded[T]) Newest() (T, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	return q.items[(q.head+q.size-1)%len(q.items)], true
}

func (q *Bounded[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.size
}

func (q *Bounded[T]) Cap() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Clear empties the queue without changing its capacity.
func (q *Bounded[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.head = 0
	q.size = 0
}
