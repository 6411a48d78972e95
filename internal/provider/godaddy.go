package provider

import (
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// GoDaddyDefaultTTL is GoDaddy's "1 Hour" default.
const GoDaddyDefaultTTL = 3600

// GoDaddy parses the GoDaddy DNS manager export. Host names are relative to the zone.
type GoDaddy struct {
	base
}

// NewGoDaddy creates the GoDaddy adapter.
func NewGoDaddy(opts Options) *GoDaddy {
	return &GoDaddy{base: base{
		name:   "godaddy",
		tokens: []string{"points to", "service", "protocol"},
		fields: fieldMap{
			name:     []string{"host", "name"},
			rtype:    []string{"type"},
			value:    []string{"points to", "value"},
			ttl:      []string{"ttl"},
			priority: []string{"priority"},
			weight:   []string{"weight"},
			port:     []string{"port"},
		},
		defaultTTL: GoDaddyDefaultTTL,
		split:      splitSemicolon,
		relative:   true,
		zone:       opts.Zone,
	}}
}

func (g *GoDaddy) Parse(row record.Row) (record.Record, error) {
	return g.parse(row, func(row record.Row, rec *record.Record) error {
		if v := strings.TrimSpace(firstValue(row, []string{"service"})); v != "" {
			rec.ProviderSpecific["service"] = v
		}
		if v := strings.TrimSpace(firstValue(row, []string{"protocol"})); v != "" {
			rec.ProviderSpecific["protocol"] = v
		}
		return nil
	})
}
