// Package export serializes filtered tables into download artifacts:
// plain CSV, a ZIP archive of row-bounded CSV chunks, or Parquet.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"dataexplorer/app/dataset"
)

// DefaultChunkRowLimit is the largest row count serialized into a single
// CSV artifact before the export switches to a chunked archive.
const DefaultChunkRowLimit = 500_000

// ErrCapabilityUnavailable reports that a specific export backend failed.
// Non-fatal: artifacts already produced by other backends stay valid.
var ErrCapabilityUnavailable = errors.New("export backend unavailable")

// Format selects the serialization backend.
type Format int

const (
	FormatCSV Format = iota
	FormatParquet
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// Artifact is a fully assembled download: name, MIME type and bytes.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Export serializes a table. CSV exports above chunkRowLimit rows are
// split into consecutive chunks of at most chunkRowLimit rows and packaged
// into one ZIP archive with stable sequential member names. A
// non-positive chunkRowLimit uses DefaultChunkRowLimit.
func Export(t *dataset.Table, format Format, chunkRowLimit int) (*Artifact, error) {
	switch format {
	case FormatCSV:
		return exportCSV(t, chunkRowLimit)
	case FormatParquet:
		return exportParquet(t)
	default:
		return nil, fmt.Errorf("unknown export format %d", format)
	}
}

func exportCSV(t *dataset.Table, chunkRowLimit int) (*Artifact, error) {
	if chunkRowLimit <= 0 {
		chunkRowLimit = DefaultChunkRowLimit
	}

	if t.NumRows() <= chunkRowLimit {
		data, err := csvBytes(t, 0, t.NumRows())
		if err != nil {
			return nil, err
		}
		return &Artifact{Name: "filtered.csv", MIME: "text/csv", Data: data}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	part := 0
	for start := 0; start < t.NumRows(); start += chunkRowLimit {
		end := start + chunkRowLimit
		if end > t.NumRows() {
			end = t.NumRows()
		}
		part++
		member, err := zw.Create(fmt.Sprintf("filtered_part_%d.csv", part))
		if err != nil {
			return nil, fmt.Errorf("failed to create archive member %d: %w", part, err)
		}
		chunk, err := csvBytes(t, start, end)
		if err != nil {
			return nil, err
		}
		if _, err := member.Write(chunk); err != nil {
			return nil, fmt.Errorf("failed to write archive member %d: %w", part, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return &Artifact{Name: "filtered_parts.zip", MIME: "application/zip", Data: buf.Bytes()}, nil
}

// csvBytes serializes rows [start, end) of the table as UTF-8 CSV with a
// header row. Each chunk repeats the header so every archive member is a
// standalone CSV file.
func csvBytes(t *dataset.Table, start, end int) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := start; i < end; i++ {
		if err := w.Write(t.Row(i)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
