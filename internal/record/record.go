// Package record defines the provider-independent DNS record shape every export is
// normalized into, and the Row capability adapters read raw input through.
package record

import (
	"sort"
	"strings"
	"time"
)

// Type is a DNS record type.
type Type string

const (
	TypeA     Type = "A"
	TypeAAAA  Type = "AAAA"
	TypeCNAME Type = "CNAME"
	TypeMX    Type = "MX"
	TypeTXT   Type = "TXT"
	TypeSRV   Type = "SRV"
	TypeNS    Type = "NS"
	TypePTR   Type = "PTR"
	TypeSOA   Type = "SOA"
	TypeCAA   Type = "CAA"
	TypeALIAS Type = "ALIAS"
	TypeHTTPS Type = "HTTPS"
	TypeSVCB  Type = "SVCB"
	TypeTLSA  Type = "TLSA"
	TypeSSHFP Type = "SSHFP"
	TypeDS    Type = "DS"
	TypeNAPTR Type = "NAPTR"
)

var supported = map[Type]bool{
	TypeA: true, TypeAAAA: true, TypeCNAME: true, TypeMX: true, TypeTXT: true,
	TypeSRV: true, TypeNS: true, TypePTR: true, TypeSOA: true, TypeCAA: true,
	TypeALIAS: true, TypeHTTPS: true, TypeSVCB: true, TypeTLSA: true, TypeSSHFP: true,
	TypeDS: true, TypeNAPTR: true,
}

// ParseType normalizes s and reports whether it names a supported record type.
// Unsupported types are never coerced into a supported one.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	return t, supported[t]
}

// Supported reports whether t is in the supported set.
func (t Type) Supported() bool {
	return supported[t]
}

// SupportedTypes returns the supported record types in lexical order.
func SupportedTypes() []Type {
	out := make([]Type, 0, len(supported))
	for t := range supported {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Record is one canonical DNS record.
type Record struct {
	Name             string
	Type             Type
	Content          string
	TTL              int
	Priority         *int
	Weight           *int
	Port             *int
	CreatedAt        *time.Time
	ModifiedAt       *time.Time
	ProviderSpecific map[string]string
	SourceProvider   string
	Line             int // 1-based line in the source file, 0 when unknown
}

// LastTouched returns the modification time, falling back to the creation time.
func (r Record) LastTouched() (time.Time, bool) {
	if r.ModifiedAt != nil {
		return *r.ModifiedAt, true
	}
	if r.CreatedAt != nil {
		return *r.CreatedAt, true
	}
	return time.Time{}, false
}

// Key identifies a record for order-independent comparisons.
func (r Record) Key() string {
	return strings.ToLower(r.Name) + "|" + string(r.Type) + "|" + r.Content
}

// Row is a single raw input row addressed by header name.
type Row interface {
	// Get returns the cell for header (case-insensitive) and whether the column exists.
	Get(header string) (string, bool)
	// Headers returns the row's header names in file order.
	Headers() []string
	// Line returns the 1-based line number of the row in its source.
	Line() int
}

// MapRow is a Row backed by a map. Used for ad hoc input and tests.
type MapRow struct {
	Values  map[string]string
	Order   []string
	LineNum int
}

// NewMapRow builds a MapRow from alternating header/value pairs.
func NewMapRow(line int, pairs ...string) MapRow {
	row := MapRow{Values: make(map[string]string, len(pairs)/2), LineNum: line}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Values[NormalizeHeader(pairs[i])] = pairs[i+1]
		row.Order = append(row.Order, pairs[i])
	}
	return row
}

func (m MapRow) Get(header string) (string, bool) {
	v, ok := m.Values[NormalizeHeader(header)]
	return v, ok
}

func (m MapRow) Headers() []string { return m.Order }

func (m MapRow) Line() int { return m.LineNum }

// NormalizeHeader lower-cases a header and collapses separators so "Points To",
// "points_to" and "POINTS-TO" compare equal.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), "\"'\ufeff"))
	h = strings.ToLower(h)
	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	return strings.Join(strings.Fields(replacer.Replace(h)), " ")
}
