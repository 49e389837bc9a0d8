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

package display

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/spf13/afero"
)

// File writes every frame to a PNG, overwriting the previous one.
type File struct {
	fs     afero.Fs
	path   string
	width  int
	height int
	mu     syncutil.Mutex
}

func NewFile(fs afero.Fs, path string, width, height int) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &File{fs: fs, path: path, width: width, height: height}
}

func (f *File) Name() string {
	return "file:" + f.path
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Show(_ context.Context, bmp *render.Bitmap, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(bmp)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(render.Blank(f.width, f.height))
}

func (*File) Close() error {
	return nil
}

func (f *File) write(bmp *render.Bitmap) error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := f.fs.Create(f.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := imaging.Encode(out, bmp, imaging.PNG); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
