package provider

import (
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// DigitalOceanDefaultTTL is the control panel default.
const DigitalOceanDefaultTTL = 1800

// DigitalOcean parses DigitalOcean domain record exports.
type DigitalOcean struct {
	base
}

// NewDigitalOcean creates the DigitalOcean adapter.
func NewDigitalOcean(opts Options) *DigitalOcean {
	return &DigitalOcean{base: base{
		name:   "digitalocean",
		tokens: []string{"data", "flags", "tag"},
		fields: fieldMap{
			name:     []string{"name"},
			rtype:    []string{"type"},
			value:    []string{"data"},
			ttl:      []string{"ttl"},
			priority: []string{"priority"},
			weight:   []string{"weight"},
			port:     []string{"port"},
		},
		defaultTTL: DigitalOceanDefaultTTL,
		split:      splitNone,
		relative:   true,
		zone:       opts.Zone,
	}}
}

func (d *DigitalOcean) Parse(row record.Row) (record.Record, error) {
	return d.parse(row, func(row record.Row, rec *record.Record) error {
		// CAA fields
		if v := strings.TrimSpace(firstValue(row, []string{"flags"})); v != "" {
			rec.ProviderSpecific["flags"] = v
		}
		if v := strings.TrimSpace(firstValue(row, []string{"tag"})); v != "" {
			rec.ProviderSpecific["tag"] = v
		}
		return nil
	})
}
