// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package csvload reads range records from CSV files with a header row.
//
// One column holds the range, either as CIDR or as "first-last" dash
// range, all columns of a row are kept as the record payload.
// Degenerate ranges (/0 prefixes and prefixes of the unspecified address)
// are counted and skipped, malformed ranges abort the load.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/gaissmai/rangeidx"
)

const (
	// DefaultRangeColumn is the header name of the range column.
	DefaultRangeColumn = "Range"

	EncodingLatin1 = "latin-1"
	EncodingUTF8   = "utf-8"
)

// ErrMissingColumn is returned if the header has no range column.
var ErrMissingColumn = errors.New("range column missing in header")

// Config controls the CSV dialect, the zero value is usable.
type Config struct {
	// RangeColumn is the header name of the range column,
	// defaults to "Range".
	RangeColumn string `yaml:"range_column"`

	// Encoding of the file, "latin-1" (default) or "utf-8".
	Encoding string `yaml:"encoding"`

	// Comma is the field delimiter, defaults to ','.
	Comma string `yaml:"comma"`

	// Logger, defaults to a nop logger.
	Logger *zap.Logger `yaml:"-"`
}

func (c Config) withDefaults() (Config, error) {
	if c.RangeColumn == "" {
		c.RangeColumn = DefaultRangeColumn
	}

	switch strings.ToLower(c.Encoding) {
	case "", "latin1", EncodingLatin1, "iso-8859-1":
		c.Encoding = EncodingLatin1
	case "utf8", EncodingUTF8:
		c.Encoding = EncodingUTF8
	default:
		return c, errors.Errorf("unsupported encoding %q", c.Encoding)
	}

	if c.Comma == "" {
		c.Comma = ","
	}
	if n := len([]rune(c.Comma)); n != 1 {
		return c, errors.Errorf("comma must be a single character, got %q", c.Comma)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return c, nil
}

// Row is the payload of a loaded record, the fields of one CSV line.
// All rows of a load share the same header slice.
type Row struct {
	Header []string
	Fields []string
}

// Get returns the field for the header name, or "" if there is none.
func (r Row) Get(name string) string {
	for i, h := range r.Header {
		if h == name && i < len(r.Fields) {
			return r.Fields[i]
		}
	}
	return ""
}

// String formats the row as "name=value" pairs in column order.
func (r Row) String() string {
	var sb strings.Builder
	for i, f := range r.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i < len(r.Header) {
			sb.WriteString(r.Header[i])
			sb.WriteByte('=')
		}
		sb.WriteString(f)
	}
	return sb.String()
}

// Stats about a load.
type Stats struct {
	Rows       int           `json:"rows"`
	Records    int           `json:"records"`
	Degenerate int           `json:"degenerate"`
	Elapsed    time.Duration `json:"elapsed"`
}

// LoadFile opens path and calls [Load].
func LoadFile(path string, cfg Config) ([]rangeidx.Record[Row], Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "open range file")
	}
	defer f.Close()

	recs, stats, err := Load(f, cfg)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "load %s", path)
	}
	return recs, stats, nil
}

// Load reads all rows from r and returns the records in file order.
// The record text is the trimmed range field, the payload the full row.
func Load(r io.Reader, cfg Config) ([]rangeidx.Record[Row], Stats, error) {
	var stats Stats

	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, stats, err
	}
	lg := cfg.Logger

	start := time.Now()

	if cfg.Encoding == EncodingLatin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}

	cr := csv.NewReader(r)
	cr.Comma = []rune(cfg.Comma)[0]
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, errors.Wrap(ErrMissingColumn, "empty input")
	}
	if err != nil {
		return nil, stats, errors.Wrap(err, "read header")
	}

	col := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == cfg.RangeColumn && col < 0 {
			col = i
		}
	}
	if col < 0 {
		return nil, stats, errors.Wrapf(ErrMissingColumn, "want %q, got %v", cfg.RangeColumn, header)
	}

	lg.Debug("csv header", zap.Strings("columns", header), zap.Int("range_column", col))

	var recs []rangeidx.Record[Row]
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, errors.Wrap(err, "read row")
		}
		stats.Rows++

		line, _ := cr.FieldPos(col)
		text := strings.TrimSpace(fields[col])

		rec, ok, err := rangeidx.NewRecord(text, Row{Header: header, Fields: fields})
		if err != nil {
			return nil, stats, errors.Wrapf(err, "line %d", line)
		}
		if !ok {
			stats.Degenerate++
			lg.Debug("skip degenerate range", zap.Int("line", line), zap.String("range", text))
			continue
		}

		recs = append(recs, rec)
	}

	stats.Records = len(recs)
	stats.Elapsed = time.Since(start)

	lg.Info("ranges loaded",
		zap.Int("rows", stats.Rows),
		zap.Int("records", stats.Records),
		zap.Int("degenerate", stats.Degenerate),
		zap.String("took", fmt.Sprintf("%.1fs", stats.Elapsed.Seconds())),
	)

	return recs, stats, nil
}
