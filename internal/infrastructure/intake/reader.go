package intake

import (
	"strings"
	"unicode/utf8"
)

// RecordKind tells which parse path a record takes.
type RecordKind string

const (
	KindTabular  RecordKind = "tabular"
	KindFreeText RecordKind = "freetext"
)

// Record is one raw input unit with its 1-based starting line number.
type Record struct {
	Line int
	Text string
	Kind RecordKind
}

// DefaultMaxInputBytes caps a single batch input.
const DefaultMaxInputBytes = 10 << 20

// Reader splits raw batch input into records
type Reader struct {
	maxBytes   int
	skipHeader bool
}

// ReaderOption is a functional option for Reader configuration
type ReaderOption func(*Reader)

// WithMaxBytes sets the maximum accepted input size
func WithMaxBytes(n int) ReaderOption {
	return func(r *Reader) {
		r.maxBytes = n
	}
}

// WithHeaderDetection enables dropping a leading column-header row (default on)
func WithHeaderDetection(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.skipHeader = enabled
	}
}

// NewReader creates a new record reader
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		maxBytes:   DefaultMaxInputBytes,
		skipHeader: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SplitRecords splits input with default reader options.
func SplitRecords(input string) ([]Record, error) {
	return NewReader().Split(input)
}

// Split strips a UTF-8 BOM, rejects invalid UTF-8 and splits the input.
// When any line holds a tab every non-blank line is a tabular record.
// Otherwise the input is free text: lines of only "---" or "===" separate
// blocks, and without separators the whole text is a single block.
func (r *Reader) Split(input string) ([]Record, error) {
	if r.maxBytes > 0 && len(input) > r.maxBytes {
		return nil, ErrInputTooLarge
	}

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	input = strings.TrimPrefix(input, "\ufeff")

	if !utf8.ValidString(input) {
		return nil, ErrInvalidEncoding
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	lines := strings.Split(input, "\n")
	var records []Record
	if strings.Contains(input, "\t") {
		records = tabularRecords(lines)
		if r.skipHeader && len(records) > 0 && isHeaderRow(strings.Split(records[0].Text, "\t")) {
			records = records[1:]
		}
	} else {
		records = freeTextRecords(lines)
	}

	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return records, nil
}

func tabularRecords(lines []string) []Record {
	records := make([]Record, 0, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		records = append(records, Record{Line: i + 1, Text: l, Kind: KindTabular})
	}
	return records
}

func freeTextRecords(lines []string) []Record {
	var records []Record
	start := -1
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			records = append(records, Record{Line: start + 1, Text: text, Kind: KindFreeText})
		}
		buf = buf[:0]
		start = -1
	}

	for i, l := range lines {
		if isBlockSeparator(l) {
			flush()
			continue
		}
		if start < 0 {
			if strings.TrimSpace(l) == "" {
				continue
			}
			start = i
		}
		buf = append(buf, l)
	}
	flush()
	return records
}

func isBlockSeparator(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return false
	}
	return strings.Trim(t, "-") == "" || strings.Trim(t, "=") == ""
}

var headerNames = map[string]bool{
	"origin": true, "region": true, "warehouse": true, "carrier": true, "service": true,
	"first name": true, "firstname": true, "last name": true, "lastname": true, "name": true,
	"phone": true, "email": true, "e-mail": true, "street": true, "street1": true, "address": true,
	"address 1": true, "address1": true, "street2": true, "address 2": true, "address2": true,
	"city": true, "state": true, "zip": true, "zip code": true, "postal code": true, "country": true,
	"dimensions": true, "dims": true, "weight": true, "contents": true, "description": true,
}

// isHeaderRow reports whether at least three columns are well-known header names.
func isHeaderRow(cols []string) bool {
	hits := 0
	for _, c := range cols {
		if headerNames[strings.ToLower(strings.TrimSpace(c))] {
			hits++
		}
	}
	return hits >= 3
}
