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

package mocks

import (
	"context"
	"fmt"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/stretchr/testify/mock"
)

// MockSink is a display sink that records frames. Expectations are
// optional: with none set, every call succeeds.
type MockSink struct {
	mock.Mock
	Frames []*render.Bitmap
	Fulls  []bool
	Clears int
	mu     syncutil.Mutex
	expect bool
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

// Strict makes the sink consult testify expectations.
func (m *MockSink) Strict() *MockSink {
	m.expect = true
	return m
}

func (m *MockSink) Show(ctx context.Context, bmp *render.Bitmap, full bool) error {
	if m.expect {
		if err := m.Called(ctx, bmp, full).Error(0); err != nil {
			return fmt.Errorf("mock operation failed: %w", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, bmp)
	m.Fulls = append(m.Fulls, full)
	return nil
}

func (m *MockSink) Clear(ctx context.Context) error {
	if m.expect {
		if err := m.Called(ctx).Error(0); err != nil {
			return fmt.Errorf("mock operation failed: %w", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
	return nil
}

func (*MockSink) Close() error { return nil }
func (*MockSink) Name() string { return "mock" }

// FrameCount returns how many frames were shown.
func (m *MockSink) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Frames)
}

// LastFrame returns the most recent frame, nil if none.
func (m *MockSink) LastFrame() *render.Bitmap {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Frames) == 0 {
		return nil
	}
	return m.Frames[len(m.Frames)-1]
}

// ClearCount returns how many times Clear succeeded.
func (m *MockSink) ClearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Clears
}
