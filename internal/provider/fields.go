package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// timestampLayouts are tried in order. Exports disagree on zone suffixes and date order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	time.RFC1123,
	time.RFC1123Z,
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	// Unix seconds
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

var ttlUnits = map[string]int{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"d": 86400, "day": 86400, "days": 86400,
}

// maxTTL is the largest TTL a resolver will honour (RFC 2181 section 8).
const maxTTL = math.MaxInt32

// parseTTL accepts plain seconds, "auto", and unit forms such as "1 Hour" or "30m".
// An empty value yields def. Values above maxTTL are rejected.
func parseTTL(raw string, def int) (int, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "auto" {
		return def, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("ttl must be positive, got %d", n)
		}
		if n > maxTTL {
			return 0, fmt.Errorf("ttl %d exceeds maximum %d", n, maxTTL)
		}
		return n, nil
	}

	// Split number and unit, with or without a space between them.
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid ttl %q", raw)
	}
	n, err := strconv.Atoi(raw[:i])
	mult, ok := ttlUnits[strings.TrimSpace(raw[i:])]
	if err != nil || !ok || n <= 0 {
		return 0, fmt.Errorf("invalid ttl %q", raw)
	}
	if n > maxTTL/mult {
		return 0, fmt.Errorf("ttl %q exceeds maximum %d", raw, maxTTL)
	}
	return n * mult, nil
}

func parseOptionalInt(raw string) (*int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative value %d", n)
	}
	return &n, nil
}

// resolveName strips the trailing root dot and expands "@" against zone. When relative is
// set, names not already inside zone are treated as labels under it.
func resolveName(name, zone string, relative bool) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	zone = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(zone)), ".")
	if zone == "" {
		return name
	}
	if name == "@" {
		return zone
	}
	if !relative || name == "" {
		return name
	}
	lower := strings.ToLower(name)
	if lower == zone || strings.HasSuffix(lower, "."+zone) {
		return name
	}
	return name + "." + zone
}

// splitValues splits a multi-value cell. The result is never empty when cell is non-empty.
func splitValues(cell string, mode splitMode, t record.Type) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	var parts []string
	switch mode {
	case splitJSON:
		if strings.HasPrefix(cell, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(cell), &arr); err == nil {
				parts = arr
				break
			}
		}
		parts = strings.Split(strings.ReplaceAll(cell, "\r\n", "\n"), "\n")
	case splitSemicolon:
		parts = strings.Split(cell, ";")
	case splitComma:
		// TXT payloads routinely contain commas.
		if t == record.TypeTXT {
			return []string{cell}
		}
		parts = strings.Split(cell, ",")
	default:
		return []string{cell}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{cell}
	}
	return out
}

// unquoteTXT removes surrounding quotes and joins split character-strings:
// "v=spf1 " "include:x" becomes v=spf1 include:x.
func unquoteTXT(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' {
		return s
	}

	var b strings.Builder
	inQuote := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// extractMX moves a leading preference out of "10 mail.example.com".
func extractMX(rec *record.Record) {
	fields := strings.Fields(rec.Content)
	if len(fields) != 2 {
		return
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return
	}
	if rec.Priority == nil {
		rec.Priority = &n
	}
	rec.Content = strings.TrimSuffix(fields[1], ".")
}

// extractSRV moves "priority weight port target" into the numeric fields.
func extractSRV(rec *record.Record) {
	fields := strings.Fields(rec.Content)
	if len(fields) != 4 {
		return
	}
	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			return
		}
		nums[i] = n
	}
	if rec.Priority == nil {
		rec.Priority = &nums[0]
	}
	if rec.Weight == nil {
		rec.Weight = &nums[1]
	}
	if rec.Port == nil {
		rec.Port = &nums[2]
	}
	rec.Content = strings.TrimSuffix(fields[3], ".")
}
