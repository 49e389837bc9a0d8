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

package aprsdisplay

import (
	"net/http"
	"strconv"

	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/aprs"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// PacketRow is the CSV export shape of a packet.
type PacketRow struct {
	Time      string  `csv:"time"`
	From      string  `csv:"from"`
	To        string  `csv:"to"`
	Format    string  `csv:"format"`
	Text      string  `csv:"text"`
	Raw       string  `csv:"raw"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
}

// StatsResponse is GET /api/stats.
type StatsResponse struct {
	Server         string  `json:"server"`
	PacketsByType  []Count `json:"packets_by_type"`
	TopSenders     []Count `json:"top_senders"`
	TotalPackets   int     `json:"total_packets"`
	UniqueStations int     `json:"unique_stations"`
	PacketsPerHour float64 `json:"packets_per_hour"`
	UptimeHours    float64 `json:"uptime_hours"`
	Connected      bool    `json:"connected"`
	Verified       bool    `json:"verified"`
}

func newestFirst(recent []*aprs.Packet) []*aprs.Packet {
	out := make([]*aprs.Packet, len(recent))
	for i, p := range recent {
		out[len(recent)-1-i] = p
	}
	return out
}

func (a *App) handlePackets(w http.ResponseWriter, r *http.Request) {
	packets := newestFirst(a.state.Snapshot().Recent)

	if r.URL.Query().Get("format") != "csv" {
		api.WriteJSON(w, http.StatusOK, packets)
		return
	}

	rows := make([]PacketRow, 0, len(packets))
	for _, p := range packets {
		text := p.MessageText
		if text == "" {
			text = p.Status
		}
		if text == "" {
			text = p.Comment
		}
		rows = append(rows, PacketRow{
			Time:      p.Received.Format("2006-01-02T15:04:05Z07:00"),
			From:      p.From,
			To:        p.To,
			Format:    string(p.Format),
			Text:      text,
			Raw:       p.Raw,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		})
	}
	api.WriteCSV(w, "packets.csv", rows)
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := a.state.Snapshot()
	now := a.clock.Now()
	senders := snap.Senders
	if len(senders) > 10 {
		senders = senders[:10]
	}
	api.WriteJSON(w, http.StatusOK, StatsResponse{
		TotalPackets:   snap.Total,
		UniqueStations: snap.Stations,
		PacketsPerHour: snap.Rate(now),
		UptimeHours:    snap.Uptime(now).Hours(),
		PacketsByType:  snap.Formats,
		TopSenders:     senders,
		Connected:      a.client.Connected(),
		Verified:       a.client.Verified(),
		Server:         a.client.Server(),
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := a.history.Load()
	if history == nil {
		http.Error(w, "packet history is disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := history.Recent(limit)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, entries)
}
