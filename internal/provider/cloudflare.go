package provider

import (
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// CloudflareDefaultTTL replaces Cloudflare's "automatic" TTL, exported as 1 or "auto".
const CloudflareDefaultTTL = 300

// Cloudflare parses the Cloudflare dashboard CSV export.
type Cloudflare struct {
	base
}

// NewCloudflare creates the Cloudflare adapter.
func NewCloudflare(opts Options) *Cloudflare {
	return &Cloudflare{base: base{
		name:   "cloudflare",
		tokens: []string{"proxied"},
		fields: fieldMap{
			name:     []string{"name"},
			rtype:    []string{"type"},
			value:    []string{"content"},
			ttl:      []string{"ttl"},
			priority: []string{"priority"},
			created:  []string{"created on", "created"},
			modified: []string{"modified on", "modified"},
		},
		defaultTTL: CloudflareDefaultTTL,
		split:      splitNone,
		zone:       opts.Zone,
	}}
}

func (c *Cloudflare) Parse(row record.Row) (record.Record, error) {
	return c.parse(row, func(row record.Row, rec *record.Record) error {
		if raw, ok := row.Get("ttl"); ok && strings.TrimSpace(raw) == "1" {
			rec.TTL = CloudflareDefaultTTL
		}
		if raw, ok := row.Get("proxied"); ok && strings.TrimSpace(raw) != "" {
			rec.ProviderSpecific["proxied"] = strings.ToLower(strings.TrimSpace(raw))
		}
		return nil
	})
}
