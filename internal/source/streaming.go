package source

// streaming.go holds the io.Reader wrappers applied before CSV parsing:
//
//   - bomSkippingReader: drops a leading UTF-8 BOM written by spreadsheet exports
//   - countingReader: tracks bytes consumed for progress reporting

import (
	"io"
	"sync/atomic"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type bomSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	pending    []byte
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		buf := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(r.reader, buf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n == len(utf8BOM) && buf[0] == utf8BOM[0] && buf[1] == utf8BOM[1] && buf[2] == utf8BOM[2] {
			n = 0
		}
		r.pending = buf[:n]
		if err != nil && err != io.EOF {
			return 0, err
		}
		if len(r.pending) == 0 && err == io.EOF {
			return 0, io.EOF
		}
	}

	// Return any buffered bytes from the BOM check first
	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// countingReader wraps an io.Reader to track bytes read. The counter is read from
// progress callbacks, so it is updated atomically.
type countingReader struct {
	reader io.Reader
	read   atomic.Int64
	total  int64 // 0 if unknown
}

func newCountingReader(r io.Reader, total int64) *countingReader {
	return &countingReader{reader: r, total: total}
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// wrapForStreaming applies BOM skipping and byte counting.
// Counting wraps the raw reader so totals line up with the file size.
func wrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *countingReader) {
	counter := newCountingReader(r, totalSize)
	return newBOMSkippingReader(counter), counter
}
