package fileloader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"dataexplorer/app/dataset"
)

// LoadParquet reads a Parquet payload into a table via the Arrow reader.
// Numeric physical types map to numeric columns, timestamps and dates to
// temporal columns, everything else is rendered to text.
func LoadParquet(ctx context.Context, data []byte) (*dataset.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet payload: %w", err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer tbl.Release()

	rows := int(tbl.NumRows())
	cols := make([]*dataset.Column, tbl.NumCols())
	for ci := 0; ci < int(tbl.NumCols()); ci++ {
		name := tbl.Schema().Field(ci).Name
		col, err := columnFromChunked(name, tbl.Column(ci).Data(), rows)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column %q: %w", name, err)
		}
		cols[ci] = col
	}
	return dataset.New(cols)
}

// columnFromChunked converts one Arrow chunked array into a dataset
// column. The conversion copies values out so the Arrow table can be
// released immediately after loading.
func columnFromChunked(name string, chunked *arrow.Chunked, rows int) (*dataset.Column, error) {
	kind := kindForArrowType(chunked.DataType())

	col := &dataset.Column{Name: name, Kind: kind, Valid: make([]bool, 0, rows)}
	switch kind {
	case dataset.KindNumber:
		col.Numbers = make([]float64, 0, rows)
	case dataset.KindTime:
		col.Times = make([]int64, 0, rows)
	default:
		col.Strings = make([]string, 0, rows)
	}

	for _, chunk := range chunked.Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				col.Valid = append(col.Valid, false)
				switch kind {
				case dataset.KindNumber:
					col.Numbers = append(col.Numbers, 0)
				case dataset.KindTime:
					col.Times = append(col.Times, 0)
				default:
					col.Strings = append(col.Strings, "")
				}
				continue
			}
			col.Valid = append(col.Valid, true)
			switch arr := chunk.(type) {
			case *array.Float64:
				col.Numbers = append(col.Numbers, arr.Value(i))
			case *array.Float32:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Int64:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Int32:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Int16:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Int8:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Uint64:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Uint32:
				col.Numbers = append(col.Numbers, float64(arr.Value(i)))
			case *array.Timestamp:
				col.Times = append(col.Times, timestampMillis(arr.Value(i), arr.DataType()))
			case *array.Date32:
				col.Times = append(col.Times, int64(arr.Value(i))*24*60*60*1000)
			case *array.Date64:
				col.Times = append(col.Times, int64(arr.Value(i)))
			case *array.String:
				col.Strings = append(col.Strings, arr.Value(i))
			case *array.LargeString:
				col.Strings = append(col.Strings, arr.Value(i))
			default:
				col.Strings = append(col.Strings, chunk.ValueStr(i))
			}
		}
	}
	return col, nil
}

func kindForArrowType(dt arrow.DataType) dataset.Kind {
	switch dt.ID() {
	case arrow.FLOAT64, arrow.FLOAT32, arrow.INT64, arrow.INT32, arrow.INT16, arrow.INT8, arrow.UINT64, arrow.UINT32:
		return dataset.KindNumber
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return dataset.KindTime
	default:
		return dataset.KindString
	}
}

func timestampMillis(v arrow.Timestamp, dt arrow.DataType) int64 {
	ts, ok := dt.(*arrow.TimestampType)
	if !ok {
		return int64(v)
	}
	switch ts.Unit {
	case arrow.Second:
		return int64(v) * 1000
	case arrow.Millisecond:
		return int64(v)
	case arrow.Microsecond:
		return int64(v) / 1000
	default: // nanoseconds
		return int64(v) / 1_000_000
	}
}
