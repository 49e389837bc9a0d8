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

package osc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrArgument = errors.New("bad OSC argument")

func arg(args []any, i int) (any, error) {
	if i < 0 || i >= len(args) {
		return nil, fmt.Errorf("%w: want at least %d, got %d", ErrArgument, i+1, len(args))
	}
	return args[i], nil
}

// Float reads args[i] as a float64. Ints, bools and numeric strings are
// converted.
func Float(args []any, i int) (float64, error) {
	v, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, perr := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if perr != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrArgument, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrArgument, v)
	}
}

// Int reads args[i] as an int, truncating floats.
func Int(args []any, i int) (int, error) {
	v, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	if s, ok := v.(string); ok {
		n, perr := strconv.Atoi(strings.TrimSpace(s))
		if perr != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrArgument, s)
		}
		return n, nil
	}
	f, err := Float(args, i)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// String reads args[i] as text. Numbers are formatted.
func String(args []any, i int) (string, error) {
	v, err := arg(args, i)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case float32, float64, int32, int64, int, bool:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("%w: %T is not text", ErrArgument, v)
	}
}

// Bool reads args[i] as a bool. Numbers are true when non-zero.
func Bool(args []any, i int) (bool, error) {
	v, err := arg(args, i)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, perr := strconv.ParseBool(strings.TrimSpace(b))
		if perr != nil {
			return false, fmt.Errorf("%w: %q is not a bool", ErrArgument, b)
		}
		return parsed, nil
	default:
		f, ferr := Float(args, i)
		if ferr != nil {
			return false, fmt.Errorf("%w: %T is not a bool", ErrArgument, v)
		}
		return f != 0, nil
	}
}
