// Package fileloader turns uploaded byte blobs into tables. It handles
// format detection from the file name, transparent decompression of gzip,
// bzip2 and xz payloads, and per-format parsing for CSV, JSON/JSONL,
// Parquet and XLSX files.
package fileloader

import (
	"errors"
	"fmt"
	"strings"

	"dataexplorer/app/dataset"
)

// ErrUnsupportedFormat reports an upload whose extension maps to no known
// loader. Fatal to the current upload; the user must re-upload.
var ErrUnsupportedFormat = errors.New("unsupported file type, upload Parquet, CSV, XLSX, JSON or JSONL")

// FileType represents the type of data file being processed
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeJSON
	FileTypeJSONL
	FileTypeParquet
	FileTypeXLSX
)

// String returns the string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "CSV"
	case FileTypeJSON:
		return "JSON"
	case FileTypeJSONL:
		return "JSONL"
	case FileTypeParquet:
		return "Parquet"
	case FileTypeXLSX:
		return "XLSX"
	default:
		return "Unknown"
	}
}

// DatasetResult is the outcome of loading an upload: the parsed table and
// what the payload turned out to be.
type DatasetResult struct {
	Table       *dataset.Table
	FileType    FileType
	Compression CompressionType
}

// compressionExtensions maps compression extensions to their CompressionType
var compressionExtensions = map[string]CompressionType{
	".gz":  CompressionGzip,
	".bz2": CompressionBzip2,
	".xz":  CompressionXZ,
}

var typeExtensions = map[string]FileType{
	".csv":     FileTypeCSV,
	".json":    FileTypeJSON,
	".jsonl":   FileTypeJSONL,
	".ndjson":  FileTypeJSONL,
	".parquet": FileTypeParquet,
	".xlsx":    FileTypeXLSX,
}

// DetectFileTypeAndCompression determines the file type and compression
// from the file name, handling double extensions such as .jsonl.gz. An
// unrecognized extension yields FileTypeUnknown; the caller decides
// whether that is fatal.
func DetectFileTypeAndCompression(name string) (FileType, CompressionType) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return FileTypeUnknown, CompressionNone
	}

	compression := CompressionNone
	for ext, ct := range compressionExtensions {
		if strings.HasSuffix(lower, ext) {
			compression = ct
			lower = strings.TrimSuffix(lower, ext)
			break
		}
	}

	for ext, ft := range typeExtensions {
		if strings.HasSuffix(lower, ext) {
			return ft, compression
		}
	}
	return FileTypeUnknown, compression
}

// excelColumnName converts a 0-based index to an Excel-style column name:
// 0 -> A, 25 -> Z, 26 -> AA.
func excelColumnName(index int) string {
	result := ""
	index++
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// NormalizeHeaders replaces empty or whitespace-only headers with
// Excel-style names (Unnamed_A, Unnamed_B, ...) and deduplicates repeated
// names with a numeric suffix so every column has a unique name.
func NormalizeHeaders(header []string) []string {
	normalized := make([]string, len(header))
	counts := make(map[string]int, len(header))
	emptyCount := 0
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed_" + excelColumnName(emptyCount)
			emptyCount++
		}
		counts[name]++
		if c := counts[name]; c > 1 {
			name = fmt.Sprintf("%s_%d", name, c)
			counts[name]++
		}
		normalized[i] = name
	}
	return normalized
}
