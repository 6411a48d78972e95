package provider

import (
	"github.com/dbsmedya/zoneaudit/internal/record"
)

// GenericDefaultTTL applies to exports that omit TTL.
const GenericDefaultTTL = 3600

// Generic accepts any export with recognizable name, type and value columns.
type Generic struct {
	base
}

// NewGeneric creates the fallback adapter.
func NewGeneric(opts Options) *Generic {
	return &Generic{base: base{
		name: "generic",
		fields: fieldMap{
			name:     []string{"name", "host", "hostname", "record", "record name", "domain"},
			rtype:    []string{"type", "record type", "rtype"},
			value:    []string{"content", "value", "data", "target", "points to", "answer", "address"},
			ttl:      []string{"ttl"},
			priority: []string{"priority", "preference", "pref"},
			weight:   []string{"weight"},
			port:     []string{"port"},
			created:  []string{"created", "created at", "created on", "creation date", "date created"},
			modified: []string{"modified", "modified at", "modified on", "updated", "updated at", "last modified"},
		},
		defaultTTL: GenericDefaultTTL,
		split:      splitComma,
		zone:       opts.Zone,
	}}
}

func (g *Generic) Parse(row record.Row) (record.Record, error) {
	return g.parse(row, nil)
}
