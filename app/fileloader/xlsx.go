package fileloader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"dataexplorer/app/dataset"
)

// LoadXLSX parses the first sheet of an Excel workbook into a table. The
// first row is the header; value typing follows the same inference rules
// as the CSV loader.
func LoadXLSX(data []byte) (*dataset.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no rows", sheets[0])
	}

	header := NormalizeHeaders(rows[0])
	return columnsFromStringRows(header, rows[1:])
}
