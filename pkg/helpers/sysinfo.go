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

package helpers

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/afero"
)

const thermalZonePath = "/sys/class/thermal/thermal_zone0/temp"

// SystemStatus is the health summary shown on the web dashboard.
type SystemStatus struct {
	Temperature   *float64 `json:"temperature"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	DiskPercent   float64  `json:"disk_percent"`
	UptimeSeconds uint64   `json:"uptime_seconds"`
}

// ReadSystemStatus samples CPU usage over sample and reads memory, disk and
// SoC temperature. Individual read failures leave their field zero.
func ReadSystemStatus(ctx context.Context, fs afero.Fs, sample time.Duration) SystemStatus {
	var status SystemStatus

	if pct, err := cpu.PercentWithContext(ctx, sample, false); err == nil && len(pct) > 0 {
		status.CPUPercent = round1(pct[0])
	} else if err != nil {
		log.Debug().Err(err).Msg("cpu usage unavailable")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.MemoryPercent = round1(vm.UsedPercent)
	} else {
		log.Debug().Err(err).Msg("memory usage unavailable")
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		status.DiskPercent = round1(du.UsedPercent)
	} else {
		log.Debug().Err(err).Msg("disk usage unavailable")
	}

	if up, err := host.UptimeWithContext(ctx); err == nil {
		status.UptimeSeconds = up
	}

	status.Temperature = CPUTemperature(fs)
	return status
}

// CPUTemperature reads the SoC temperature in °C from the first thermal
// zone, nil when there isn't one.
func CPUTemperature(fs afero.Fs) *float64 {
	data, err := afero.ReadFile(fs, thermalZonePath)
	if err != nil {
		return nil
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return nil
	}
	temp := round1(milli / 1000)
	return &temp
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
