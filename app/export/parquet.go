package export

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"dataexplorer/app/dataset"
)

// exportParquet serializes the table as a single Parquet artifact. Any
// backend failure is wrapped in ErrCapabilityUnavailable so callers can
// report it without discarding artifacts produced by other backends.
func exportParquet(t *dataset.Table) (*Artifact, error) {
	data, err := parquetBytes(t)
	if err != nil {
		return nil, fmt.Errorf("%w: parquet serialization failed: %v", ErrCapabilityUnavailable, err)
	}
	return &Artifact{Name: "filtered.parquet", MIME: "application/octet-stream", Data: data}, nil
}

func parquetBytes(t *dataset.Table) ([]byte, error) {
	mem := memory.DefaultAllocator

	fields := make([]arrow.Field, t.NumCols())
	for i, col := range t.Columns() {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowTypeForKind(col.Kind), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for ci, col := range t.Columns() {
		switch col.Kind {
		case dataset.KindNumber:
			b := rb.Field(ci).(*array.Float64Builder)
			for i := 0; i < col.Len(); i++ {
				if col.Valid[i] {
					b.Append(col.Numbers[i])
				} else {
					b.AppendNull()
				}
			}
		case dataset.KindTime:
			b := rb.Field(ci).(*array.TimestampBuilder)
			for i := 0; i < col.Len(); i++ {
				if col.Valid[i] {
					b.Append(arrow.Timestamp(col.Times[i]))
				} else {
					b.AppendNull()
				}
			}
		default:
			b := rb.Field(ci).(*array.StringBuilder)
			for i := 0; i < col.Len(); i++ {
				if col.Valid[i] {
					b.Append(col.Strings[i])
				} else {
					b.AppendNull()
				}
			}
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithAllocator(mem))
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))
	chunkSize := tbl.NumRows()
	if chunkSize == 0 {
		chunkSize = 1
	}
	if err := pqarrow.WriteTable(tbl, &buf, chunkSize, props, arrProps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func arrowTypeForKind(kind dataset.Kind) arrow.DataType {
	switch kind {
	case dataset.KindNumber:
		return arrow.PrimitiveTypes.Float64
	case dataset.KindTime:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}
