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

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPushPopOrder(t *testing.T) {
	t.Parallel()

	q := New[int](3)
	q.Push(1)
	q.Push(2)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPushEvictsOldest(t *testing.T) {
	t.Parallel()

	q := New[string](2)
	_, evicted := q.Push("a")
	assert.False(t, evicted)
	q.Push("b")

	dropped, evicted := q.Push("c")
	assert.True(t, evicted)
	assert.Equal(t, "a", dropped)
	assert.Equal(t, []string{"b", "c"}, q.Items())
}

func TestLast(t *testing.T) {
	t.Parallel()

	q := New[int](5)
	for i := range 8 {
		q.Push(i)
	}

	assert.Equal(t, []int{5, 6, 7}, q.Last(3))
	assert.Equal(t, []int{3, 4, 5, 6, 7}, q.Last(50))
	assert.Empty(t, q.Last(0))

	newest, ok := q.Newest()
	require.True(t, ok)
	assert.Equal(t, 7, newest)
}

func TestClear(t *testing.T) {
	t.Parallel()

	q := New[int](2)
	q.Push(1)
	q.Push(2)
	q.Clear()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 2, q.Cap())
	_, ok := q.Newest()
	assert.False(t, ok)
}

func TestNewMinimumCapacity(t *testing.T) {
	t.Parallel()

	q := New[int](0)
	assert.Equal(t, 1, q.Cap())
}

// TestPropertyNeverExceedsCapacity pushes bursts larger than the capacity and
// checks the queue keeps exactly the newest items.
func TestPropertyNeverExceedsCapacity(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		count := rapid.IntRange(0, 200).Draw(t, "count")

		q := New[int](capacity)
		for i := range count {
			q.Push(i)
			if q.Len() > capacity {
				t.Fatalf("len %d exceeds capacity %d", q.Len(), capacity)
			}
		}

		want := min(count, capacity)
		if q.Len() != want {
			t.Fatalf("len = %d, want %d", q.Len(), want)
		}

		items := q.Items()
		for i, v := range items {
			if expected := count - want + i; v != expected {
				t.Fatalf("items[%d] = %d, want %d", i, v, expected)
			}
		}
	})
}
