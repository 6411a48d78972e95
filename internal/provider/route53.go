package provider

import (
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// Route53DefaultTTL applies when the TTL column is empty, which is the case for alias records.
const Route53DefaultTTL = 300

// Route53 parses record set listings exported from AWS Route 53.
type Route53 struct {
	base
}

// NewRoute53 creates the Route 53 adapter.
func NewRoute53(opts Options) *Route53 {
	return &Route53{base: base{
		name:   "route53",
		tokens: []string{"routing policy", "set identifier", "alias target"},
		fields: fieldMap{
			name:  []string{"name"},
			rtype: []string{"type"},
			value: []string{"value", "values", "resource records"},
			ttl:   []string{"ttl"},
		},
		defaultTTL: Route53DefaultTTL,
		split:      splitJSON,
		zone:       opts.Zone,
	}}
}

func (r *Route53) Parse(row record.Row) (record.Record, error) {
	return r.parse(row, func(row record.Row, rec *record.Record) error {
		alias := strings.TrimSpace(firstValue(row, []string{"alias target", "alias dns name"}))
		if alias != "" {
			rec.ProviderSpecific["alias_target"] = strings.TrimSuffix(alias, ".")
			if rec.Content == "" {
				rec.Content = strings.TrimSuffix(alias, ".")
				rec.ProviderSpecific["alias"] = "true"
			}
		}
		if v := strings.TrimSpace(firstValue(row, []string{"routing policy"})); v != "" {
			rec.ProviderSpecific["routing_policy"] = v
		}
		if v := strings.TrimSpace(firstValue(row, []string{"set identifier"})); v != "" {
			rec.ProviderSpecific["set_identifier"] = v
		}
		return nil
	})
}
