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

package aprs

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes one TNC2 line, SRC>DEST,PATH:payload. Lines starting with
// '#' are server comments and return ErrServerLine. Payload types the
// parser does not know are returned with FormatUnknown, not an error.
func Parse(line string) (*Packet, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedPacket)
	}
	if line[0] == '#' {
		return nil, ErrServerLine
	}

	header, body, ok := strings.Cut(line, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing ':'", ErrMalformedPacket)
	}
	from, rest, ok := strings.Cut(header, ">")
	if !ok {
		return nil, fmt.Errorf("%w: missing '>'", ErrMalformedPacket)
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, fmt.Errorf("%w: empty source", ErrMalformedPacket)
	}
	path := strings.Split(rest, ",")
	if path[0] == "" {
		return nil, fmt.Errorf("%w: empty destination", ErrMalformedPacket)
	}

	p := &Packet{
		Raw:    line,
		From:   from,
		To:     path[0],
		Format: FormatUnknown,
	}
	if len(path) > 1 {
		p.Path = path[1:]
	}
	if body == "" {
		return p, nil
	}
	if err := parseBody(p, body); err != nil {
		return nil, err
	}
	return p, nil
}

func parseBody(p *Packet, body string) error {
	switch body[0] {
	case '!', '=':
		return parsePositionReport(p, body[1:])
	case '/', '@':
		if len(body) < 8 {
			return fmt.Errorf("%w: short timestamp", ErrMalformedPacket)
		}
		return parsePositionReport(p, body[8:])
	case '`', '\'':
		return parseMicE(p, body)
	case ':':
		return parseMessage(p, body[1:])
	case '>':
		p.Format = FormatStatus
		p.Status = strings.TrimSpace(body[1:])
	case ';':
		return parseObject(p, body[1:])
	case ')':
		return parseItem(p, body[1:])
	case '_':
		return parsePositionlessWeather(p, body[1:])
	case 'T':
		return parseTelemetry(p, body[1:])
	default:
		p.Comment = body
	}
	return nil
}

func parsePositionReport(p *Packet, s string) error {
	rest, err := parsePosition(p, s)
	if err != nil {
		return err
	}
	if p.Symbol == '_' {
		p.Format = FormatWeather
		p.Weather, rest = parseWeather(rest, true)
	}
	p.Comment = strings.TrimSpace(rest)
	return nil
}

// parsePosition decodes an uncompressed or compressed position and returns
// what follows it.
func parsePosition(p *Packet, s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: missing position", ErrMalformedPacket)
	}

	if isDigit(s[0]) || s[0] == ' ' {
		if len(s) < 19 {
			return "", fmt.Errorf("%w: short position", ErrMalformedPacket)
		}
		lat, err := parseLatitude(s[0:8])
		if err != nil {
			return "", err
		}
		lon, err := parseLongitude(s[9:18])
		if err != nil {
			return "", err
		}
		p.Latitude, p.Longitude = lat, lon
		p.SymbolTable, p.Symbol = s[8], s[18]
		p.HasPosition = true
		p.Format = FormatUncompressed
		return s[19:], nil
	}

	if len(s) < 13 {
		return "", fmt.Errorf("%w: short compressed position", ErrMalformedPacket)
	}
	if !isSymbolTable(s[0]) {
		return "", fmt.Errorf("%w: bad symbol table %q", ErrMalformedPacket, s[0])
	}
	y, ok := base91(s[1:5])
	if !ok {
		return "", fmt.Errorf("%w: bad compressed latitude", ErrMalformedPacket)
	}
	x, ok := base91(s[5:9])
	if !ok {
		return "", fmt.Errorf("%w: bad compressed longitude", ErrMalformedPacket)
	}
	p.Latitude = 90 - float64(y)/380926
	p.Longitude = -180 + float64(x)/190463
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return "", fmt.Errorf("%w: compressed position out of range", ErrMalformedPacket)
	}
	p.SymbolTable, p.Symbol = s[0], s[9]
	p.HasPosition = true
	p.Format = FormatCompressed
	return s[13:], nil
}

// parseLatitude reads DDMM.mmN. Spaces (position ambiguity) count as zero.
func parseLatitude(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "0")
	if len(s) != 8 || s[4] != '.' {
		return 0, fmt.Errorf("%w: bad latitude %q", ErrMalformedPacket, s)
	}
	deg, err1 := strconv.Atoi(s[0:2])
	minutes, err2 := strconv.ParseFloat(s[2:7], 64)
	if err1 != nil || err2 != nil || deg < 0 || deg > 90 || minutes < 0 || minutes >= 60 {
		return 0, fmt.Errorf("%w: bad latitude %q", ErrMalformedPacket, s)
	}
	v := float64(deg) + minutes/60
	switch s[7] {
	case 'N', 'n':
	case 'S', 's':
		v = -v
	default:
		return 0, fmt.Errorf("%w: bad latitude hemisphere %q", ErrMalformedPacket, s[7])
	}
	return v, nil
}

// parseLongitude reads DDDMM.mmW.
func parseLongitude(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "0")
	if len(s) != 9 || s[5] != '.' {
		return 0, fmt.Errorf("%w: bad longitude %q", ErrMalformedPacket, s)
	}
	deg, err1 := strconv.Atoi(s[0:3])
	minutes, err2 := strconv.ParseFloat(s[3:8], 64)
	if err1 != nil || err2 != nil || deg < 0 || deg > 180 || minutes < 0 || minutes >= 60 {
		return 0, fmt.Errorf("%w: bad longitude %q", ErrMalformedPacket, s)
	}
	v := float64(deg) + minutes/60
	switch s[8] {
	case 'E', 'e':
	case 'W', 'w':
		v = -v
	default:
		return 0, fmt.Errorf("%w: bad longitude hemisphere %q", ErrMalformedPacket, s[8])
	}
	return v, nil
}

func parseMicE(p *Packet, body string) error {
	dest, _, _ := strings.Cut(p.To, "-")
	if len(dest) < 6 || len(body) < 9 {
		return fmt.Errorf("%w: short Mic-E frame", ErrMalformedPacket)
	}

	var digits [6]int
	for i := range 6 {
		d, ok := miceDigit(dest[i])
		if !ok {
			return fmt.Errorf("%w: bad Mic-E destination %q", ErrMalformedPacket, dest)
		}
		digits[i] = d
	}
	lat := float64(digits[0]*10+digits[1]) +
		(float64(digits[2]*10+digits[3])+float64(digits[4]*10+digits[5])/100)/60
	if !inRange(dest[3], 'P', 'Z') {
		lat = -lat
	}

	deg := int(body[1]) - 28
	if inRange(dest[4], 'P', 'Z') {
		deg += 100
	}
	switch {
	case deg >= 180 && deg <= 189:
		deg -= 80
	case deg >= 190 && deg <= 199:
		deg -= 190
	}
	minutes := int(body[2]) - 28
	if minutes >= 60 {
		minutes -= 60
	}
	hundredths := int(body[3]) - 28
	if deg < 0 || deg > 180 || minutes < 0 || minutes > 59 || hundredths < 0 || hundredths > 99 {
		return fmt.Errorf("%w: bad Mic-E longitude", ErrMalformedPacket)
	}
	lon := float64(deg) + (float64(minutes)+float64(hundredths)/100)/60
	if inRange(dest[5], 'P', 'Z') {
		lon = -lon
	}
	if lat < -90 || lat > 90 || lon > 180 {
		return fmt.Errorf("%w: Mic-E position out of range", ErrMalformedPacket)
	}

	p.Latitude, p.Longitude = lat, lon
	p.Symbol, p.SymbolTable = body[7], body[8]
	p.HasPosition = true
	p.Format = FormatMicE
	p.Comment = strings.TrimSpace(body[9:])
	return nil
}

func miceDigit(c byte) (int, bool) {
	switch {
	case inRange(c, '0', '9'):
		return int(c - '0'), true
	case inRange(c, 'A', 'J'):
		return int(c - 'A'), true
	case inRange(c, 'P', 'Y'):
		return int(c - 'P'), true
	case c == 'K' || c == 'L' || c == 'Z':
		return 0, true
	}
	return 0, false
}

var telemetryPrefixes = []string{"PARM.", "UNIT.", "EQNS.", "BITS."}

// parseMessage reads :ADDRESSEE:text{id with a nine character addressee.
func parseMessage(p *Packet, s string) error {
	if len(s) < 10 || s[9] != ':' {
		return fmt.Errorf("%w: bad message addressee", ErrMalformedPacket)
	}
	p.Addressee = strings.TrimSpace(s[:9])
	text := s[10:]
	if i := strings.LastIndexByte(text, '{'); i >= 0 && len(text)-i <= 7 {
		p.MessageID = strings.TrimRight(text[i+1:], "}")
		text = text[:i]
	}
	p.MessageText = strings.TrimRight(text, " ")
	p.Format = FormatMessage
	for _, prefix := range telemetryPrefixes {
		if strings.HasPrefix(p.MessageText, prefix) {
			p.Format = FormatTelemetry
			break
		}
	}
	return nil
}

// parseObject reads NAME_____*DDHHMMzPOSITION with a nine character name.
func parseObject(p *Packet, s string) error {
	if len(s) < 17 {
		return fmt.Errorf("%w: short object", ErrMalformedPacket)
	}
	switch s[9] {
	case '*':
		p.Alive = true
	case '_':
	default:
		return fmt.Errorf("%w: bad object state %q", ErrMalformedPacket, s[9])
	}
	p.ObjectName = strings.TrimRight(s[:9], " ")
	rest, err := parsePosition(p, s[17:])
	if err != nil {
		return err
	}
	if p.Symbol == '_' {
		p.Weather, rest = parseWeather(rest, true)
	}
	p.Format = FormatObject
	p.Comment = strings.TrimSpace(rest)
	return nil
}

// parseItem reads NAME!POSITION, the name being three to nine characters
// and ended by '!' (alive) or '_' (killed).
func parseItem(p *Packet, s string) error {
	end := -1
	for i := 3; i < len(s) && i <= 9; i++ {
		if s[i] == '!' || s[i] == '_' {
			end = i
			break
		}
	}
	if end < 0 {
		return fmt.Errorf("%w: bad item name", ErrMalformedPacket)
	}
	p.ObjectName = s[:end]
	p.Alive = s[end] == '!'
	rest, err := parsePosition(p, s[end+1:])
	if err != nil {
		return err
	}
	p.Format = FormatItem
	p.Comment = strings.TrimSpace(rest)
	return nil
}

// parsePositionlessWeather reads MDHM timestamp then weather fields.
func parsePositionlessWeather(p *Packet, s string) error {
	if len(s) < 8 {
		return fmt.Errorf("%w: short weather report", ErrMalformedPacket)
	}
	w, rest := parseWeather(s[8:], false)
	p.Format = FormatWeather
	p.Weather = w
	p.Comment = strings.TrimSpace(rest)
	return nil
}

// parseTelemetry reads #SSS,A1,A2,A3,A4,A5,BBBBBBBB.
func parseTelemetry(p *Packet, s string) error {
	if !strings.HasPrefix(s, "#") {
		return fmt.Errorf("%w: telemetry without sequence", ErrMalformedPacket)
	}
	fields := strings.Split(s[1:], ",")
	if len(fields) < 2 {
		return fmt.Errorf("%w: short telemetry", ErrMalformedPacket)
	}
	if seq, err := strconv.Atoi(strings.TrimSpace(fields[0])); err == nil {
		p.Sequence = seq
	}
	for _, f := range fields[1:] {
		if len(p.Telemetry) == 5 {
			break
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("%w: bad telemetry value %q", ErrMalformedPacket, f)
		}
		p.Telemetry = append(p.Telemetry, v)
	}
	p.Format = FormatTelemetry
	return nil
}

var weatherWidths = map[byte]int{
	'c': 3, 's': 3, 'g': 3, 't': 3,
	'r': 3, 'p': 3, 'P': 3,
	'h': 2, 'b': 5, 'L': 3, 'l': 3,
}

// parseWeather reads weather fields until an unknown key. With positional
// set the data starts with DDD/SSS wind direction and speed.
func parseWeather(s string, positional bool) (*Weather, string) {
	w := &Weather{}
	if positional && len(s) >= 7 && s[3] == '/' {
		if v, ok := weatherInt(s[0:3]); ok {
			w.WindDirection = &v
		}
		if v, ok := weatherInt(s[4:7]); ok {
			f := float64(v)
			w.WindSpeed = &f
		}
		s = s[7:]
	}

	for len(s) > 0 {
		width, ok := weatherWidths[s[0]]
		if !ok || len(s) < width+1 {
			break
		}
		key, field := s[0], s[1:width+1]
		s = s[width+1:]

		v, ok := weatherInt(field)
		if !ok {
			continue
		}
		f := float64(v)
		switch key {
		case 'c':
			w.WindDirection = &v
		case 's':
			w.WindSpeed = &f
		case 'g':
			w.WindGust = &f
		case 't':
			w.Temperature = &f
		case 'r':
			f /= 100
			w.RainHour = &f
		case 'p':
			f /= 100
			w.Rain24h = &f
		case 'P':
			f /= 100
			w.RainMidnight = &f
		case 'h':
			if v == 0 {
				v = 100
			}
			w.Humidity = &v
		case 'b':
			f /= 10
			w.Pressure = &f
		case 'L':
			w.Luminosity = &v
		case 'l':
			v += 1000
			w.Luminosity = &v
		}
	}
	return w, s
}

// weatherInt parses a fixed-width field; dots or spaces mean no data.
func weatherInt(s string) (int, bool) {
	if strings.Trim(s, ". ") == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func base91(s string) (int, bool) {
	v := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 123 {
			return 0, false
		}
		v = v*91 + int(c-33)
	}
	return v, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSymbolTable(c byte) bool {
	return c == '/' || c == '\\' || inRange(c, 'A', 'Z') || inRange(c, 'a', 'j')
}

func inRange(c, lo, hi byte) bool {
	return c >= lo && c <= hi
}
