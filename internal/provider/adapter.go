// Package provider maps provider-specific CSV exports onto canonical records and
// detects which provider produced a file.
package provider

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// Adapter maps one provider's export rows to canonical records.
type Adapter interface {
	// Name is the provider tag stored in record.SourceProvider.
	Name() string
	// Signature describes the headers the detector scores against.
	Signature() Signature
	// Detect is a cheap check that the headers carry this provider's name/type/value columns.
	Detect(headers []string) bool
	// Parse converts a row. A malformed or incomplete row returns a *RowError; Parse never panics
	// on bad input.
	Parse(row record.Row) (record.Record, error)
}

// Signature lists the header names an adapter reads, normalized with record.NormalizeHeader.
type Signature struct {
	Tokens       []string // headers specific to this provider
	NameHeaders  []string
	TypeHeaders  []string
	ValueHeaders []string
}

// Options configures adapters.
type Options struct {
	// Zone is used to resolve "@" and relative names. Empty leaves them as written.
	Zone string
}

// RowError is a row-level defect. The row is skipped and processing continues.
type RowError struct {
	Line     int
	Provider string
	Reason   string
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

// splitMode selects how a multi-value content cell is split.
type splitMode int

const (
	splitNone splitMode = iota
	splitJSON
	splitSemicolon
	splitComma
)

// fieldMap names the header variants an adapter reads for each canonical field.
type fieldMap struct {
	name     []string
	rtype    []string
	value    []string
	ttl      []string
	priority []string
	weight   []string
	port     []string
	created  []string
	modified []string
}

// base holds the behaviour shared by every adapter: field extraction, provider defaults
// and the uniform validation of the resulting record.
type base struct {
	name       string
	tokens     []string
	fields     fieldMap
	defaultTTL int
	split      splitMode
	relative   bool // names are relative to the zone
	zone       string
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Signature() Signature {
	return Signature{
		Tokens:       normalizeAll(b.tokens),
		NameHeaders:  normalizeAll(b.fields.name),
		TypeHeaders:  normalizeAll(b.fields.rtype),
		ValueHeaders: normalizeAll(b.fields.value),
	}
}

func (b *base) Detect(headers []string) bool {
	set := headerSet(headers)
	return hasAny(set, b.fields.name) && hasAny(set, b.fields.rtype) && hasAny(set, b.fields.value)
}

func (b *base) rowError(row record.Row, format string, args ...interface{}) *RowError {
	return &RowError{Line: row.Line(), Provider: b.name, Reason: fmt.Sprintf(format, args...)}
}

// parse extracts the common fields. extra runs before validation for provider-specific
// columns; it may rewrite the record or reject the row.
func (b *base) parse(row record.Row, extra func(record.Row, *record.Record) error) (rec record.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = record.Record{}
			err = b.rowError(row, "unparseable row: %v", r)
		}
	}()

	rawType := strings.TrimSpace(firstValue(row, b.fields.rtype))
	if rawType == "" {
		return record.Record{}, b.rowError(row, "missing record type")
	}
	recordType, ok := record.ParseType(rawType)
	if !ok {
		return record.Record{}, b.rowError(row, "unsupported record type %q", rawType)
	}

	rec = record.Record{
		Name:             resolveName(firstValue(row, b.fields.name), b.zone, b.relative),
		Type:             recordType,
		Content:          strings.TrimSpace(firstValue(row, b.fields.value)),
		SourceProvider:   b.name,
		Line:             row.Line(),
		ProviderSpecific: make(map[string]string),
	}

	ttl, err := parseTTL(firstValue(row, b.fields.ttl), b.defaultTTL)
	if err != nil {
		return record.Record{}, b.rowError(row, "malformed ttl: %v", err)
	}
	rec.TTL = ttl

	if err := b.parseNumbers(row, &rec); err != nil {
		return record.Record{}, err
	}

	if err := b.parseTimestamps(row, &rec); err != nil {
		return record.Record{}, err
	}

	if extra != nil {
		if err := extra(row, &rec); err != nil {
			return record.Record{}, err
		}
	}

	b.normalizeContent(&rec)

	return b.finalize(row, rec)
}

func (b *base) parseNumbers(row record.Row, rec *record.Record) error {
	targets := []struct {
		field   string
		headers []string
		dst     **int
	}{
		{"priority", b.fields.priority, &rec.Priority},
		{"weight", b.fields.weight, &rec.Weight},
		{"port", b.fields.port, &rec.Port},
	}
	for _, tgt := range targets {
		raw := strings.TrimSpace(firstValue(row, tgt.headers))
		if raw == "" {
			continue
		}
		v, err := parseOptionalInt(raw)
		if err != nil {
			return b.rowError(row, "malformed %s %q", tgt.field, raw)
		}
		*tgt.dst = v
	}
	return nil
}

func (b *base) parseTimestamps(row record.Row, rec *record.Record) error {
	if raw := strings.TrimSpace(firstValue(row, b.fields.created)); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return b.rowError(row, "malformed created timestamp %q", raw)
		}
		rec.CreatedAt = &ts
	}
	if raw := strings.TrimSpace(firstValue(row, b.fields.modified)); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return b.rowError(row, "malformed modified timestamp %q", raw)
		}
		rec.ModifiedAt = &ts
	}
	return nil
}

// normalizeContent splits multi-value cells, strips TXT quoting and pulls embedded
// MX/SRV numbers out of the content string.
func (b *base) normalizeContent(rec *record.Record) {
	values := splitValues(rec.Content, b.split, rec.Type)
	if len(values) > 1 {
		rec.ProviderSpecific["values"] = strings.Join(values, "\n")
	}
	if len(values) > 0 {
		rec.Content = values[0]
	}

	switch rec.Type {
	case record.TypeTXT:
		rec.Content = unquoteTXT(rec.Content)
	case record.TypeMX:
		extractMX(rec)
	case record.TypeSRV:
		extractSRV(rec)
	}
}

// finalize applies the validation every adapter shares.
func (b *base) finalize(row record.Row, rec record.Record) (record.Record, error) {
	if rec.Name == "" {
		return record.Record{}, b.rowError(row, "missing record name")
	}
	if rec.Content == "" {
		return record.Record{}, b.rowError(row, "missing record content")
	}
	if !rec.Type.Supported() {
		return record.Record{}, b.rowError(row, "unsupported record type %q", rec.Type)
	}
	if rec.TTL <= 0 {
		return record.Record{}, b.rowError(row, "ttl must be positive, got %d", rec.TTL)
	}
	if len(rec.ProviderSpecific) == 0 {
		rec.ProviderSpecific = nil
	}
	return rec, nil
}

func normalizeAll(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		out = append(out, record.NormalizeHeader(h))
	}
	return out
}

func headerSet(headers []string) map[string]bool {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[record.NormalizeHeader(h)] = true
	}
	return set
}

func hasAny(set map[string]bool, candidates []string) bool {
	for _, c := range candidates {
		if set[record.NormalizeHeader(c)] {
			return true
		}
	}
	return false
}

// firstValue returns the first non-empty cell among headers.
func firstValue(row record.Row, headers []string) string {
	for _, h := range headers {
		if v, ok := row.Get(h); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
