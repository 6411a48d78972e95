// Package source reads provider CSV exports as a stream of header-addressable rows.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("input has no header row")

// RowSource yields rows one at a time. Next returns io.EOF once the input is exhausted.
type RowSource interface {
	Headers() []string
	Next() (record.Row, error)
}

// ProgressSource is implemented by sources that know how far through the input they are.
type ProgressSource interface {
	BytesRead() int64
	TotalBytes() int64
}

// MalformedRowError reports a row the CSV parser could not read. Reading can continue
// after it.
type MalformedRowError struct {
	Line int
	Err  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: malformed CSV row: %v", e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// Reader is a RowSource over CSV input.
type Reader struct {
	csv     *csv.Reader
	counter *countingReader
	closer  io.Closer
	headers []string
	index   map[string]int
	peeked  []peekedRow
}

// peekedRow holds a row read ahead by Peek, or the defect found in its place.
type peekedRow struct {
	row record.Row
	err error
}

// Open opens a CSV file for streaming.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	r, err := NewReader(f, size)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader reads the header row from in and returns a Reader positioned at the first
// data row. totalSize may be 0 when unknown.
func NewReader(in io.Reader, totalSize int64) (*Reader, error) {
	wrapped, counter := wrapForStreaming(in, totalSize)

	cr := csv.NewReader(wrapped)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := record.NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	return &Reader{
		csv:     cr,
		counter: counter,
		headers: headers,
		index:   index,
	}, nil
}

// Headers returns the header row as written in the file.
func (r *Reader) Headers() []string {
	return r.headers
}

// Peek reads up to n rows ahead without consuming them. The rows are returned again by
// Next. Malformed rows are left out of the sample but kept in place, so Next still
// reports them as *MalformedRowError in input order.
func (r *Reader) Peek(n int) ([]record.Row, error) {
	rows := make([]record.Row, 0, n)
	for _, p := range r.peeked {
		if p.err == nil {
			rows = append(rows, p.row)
		}
	}

	for len(rows) < n {
		row, err := r.read()
		if err == io.EOF {
			break
		}
		var malformed *MalformedRowError
		if errors.As(err, &malformed) {
			r.peeked = append(r.peeked, peekedRow{err: err})
			continue
		}
		if err != nil {
			return nil, err
		}
		r.peeked = append(r.peeked, peekedRow{row: row})
		rows = append(rows, row)
	}

	if len(rows) <= n {
		return rows, nil
	}
	return rows[:n], nil
}

// Next returns the next data row, or io.EOF.
func (r *Reader) Next() (record.Row, error) {
	if len(r.peeked) > 0 {
		p := r.peeked[0]
		r.peeked = r.peeked[1:]
		if p.err != nil {
			return nil, p.err
		}
		return p.row, nil
	}
	return r.read()
}

func (r *Reader) read() (record.Row, error) {
	for {
		fields, err := r.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedRowError{Line: parseErr.StartLine, Err: parseErr.Err}
			}
			return nil, err
		}
		line, _ := r.csv.FieldPos(0)

		if isBlank(fields) {
			continue
		}
		return &Row{fields: fields, headers: r.headers, index: r.index, line: line}, nil
	}
}

// BytesRead returns the number of input bytes consumed so far.
func (r *Reader) BytesRead() int64 {
	return r.counter.read.Load()
}

// TotalBytes returns the input size, or 0 when unknown.
func (r *Reader) TotalBytes() int64 {
	return r.counter.total
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// Row is a CSV data row. It shares the header index with its Reader, which is never
// mutated after construction.
type Row struct {
	fields  []string
	headers []string
	index   map[string]int
	line    int
}

// Get returns the cell under header. A column missing from a short row reports false.
func (r *Row) Get(header string) (string, bool) {
	i, ok := r.index[record.NormalizeHeader(header)]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	return r.fields[i], true
}

// Headers returns the header row.
func (r *Row) Headers() []string {
	return r.headers
}

// Line returns the 1-based line number.
func (r *Row) Line() int {
	return r.line
}

// Size approximates the row's encoded length in bytes: cells plus separators and newline.
func (r *Row) Size() int {
	n := len(r.fields)
	for _, f := range r.fields {
		n += len(f)
	}
	return n
}
