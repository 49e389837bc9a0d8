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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.168.1.5", ParseRemoteIP("192.168.1.5:5000").String())
	assert.Equal(t, "192.168.1.5", ParseRemoteIP("192.168.1.5").String())
	assert.Equal(t, "::1", ParseRemoteIP("[::1]:5000").String())
	assert.Nil(t, ParseRemoteIP("not-an-ip"))
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLoopbackAddr("127.0.0.1:1234"))
	assert.True(t, IsLoopbackAddr("[::1]:1234"))
	assert.False(t, IsLoopbackAddr("192.168.1.2:1234"))
	assert.False(t, IsLoopbackAddr("garbage"))
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		allowed []string
		want    bool
	}{
		{name: "empty allows all", allowed: nil, addr: "8.8.8.8:1", want: true},
		{name: "exact ip", allowed: []string{"192.168.1.10"}, addr: "192.168.1.10:5555", want: true},
		{name: "ip with port in list", allowed: []string{"192.168.1.10:7497"}, addr: "192.168.1.10:1", want: true},
		{name: "cidr", allowed: []string{"10.0.0.0/8"}, addr: "10.20.30.40:1", want: true},
		{name: "outside", allowed: []string{"10.0.0.0/8"}, addr: "192.168.1.1:1", want: false},
		{name: "loopback always", allowed: []string{"10.0.0.0/8"}, addr: "127.0.0.1:1", want: true},
		{name: "invalid entries only", allowed: []string{"bogus"}, addr: "10.0.0.1:1", want: false},
		{name: "unparseable remote", allowed: []string{"10.0.0.0/8"}, addr: "nope", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewIPFilter(tt.allowed).IsAllowed(tt.addr))
		})
	}
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.0.0/16"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/mode", http.NoBody)
	req.RemoteAddr = "192.168.4.4:999"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req.RemoteAddr = "172.16.0.1:999"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
