package fileloader

import (
	"context"
	"fmt"
)

// Load turns an uploaded byte blob into a table. The format is taken from
// the file name, with compressed payloads expanded first; a payload whose
// name carries no compression extension is still sniffed by magic bytes
// (except Parquet and XLSX, whose containers are already binary).
func Load(ctx context.Context, name string, data []byte) (*DatasetResult, error) {
	fileType, compression := DetectFileTypeAndCompression(name)
	if fileType == FileTypeUnknown {
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, name)
	}

	if compression == CompressionNone && fileType != FileTypeParquet && fileType != FileTypeXLSX {
		compression = DetectCompressionByMagic(data)
	}
	payload, err := Decompress(data, compression)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s upload: %w", compression, err)
	}

	result := &DatasetResult{FileType: fileType, Compression: compression}
	switch fileType {
	case FileTypeCSV:
		result.Table, err = LoadCSV(payload)
	case FileTypeJSON:
		result.Table, err = LoadJSON(payload)
	case FileTypeJSONL:
		result.Table, err = LoadJSONL(payload)
	case FileTypeParquet:
		result.Table, err = LoadParquet(ctx, payload)
	case FileTypeXLSX:
		result.Table, err = LoadXLSX(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s file: %w", fileType, err)
	}
	return result, nil
}
