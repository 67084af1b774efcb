package fileloader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dataexplorer/app/dataset"
)

// LoadCSV parses comma-separated data into a table. The first row is the
// header (normalized), every other row is data. Columns whose non-empty
// cells all parse as numbers become numeric columns; everything else stays
// text. Short rows are padded with missing values.
func LoadCSV(data []byte) (*dataset.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	// Allow a variable number of fields per record to survive ragged rows
	reader.FieldsPerRecord = -1

	firstRow, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header := NormalizeHeaders(firstRow)

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	return columnsFromStringRows(header, rows)
}

// columnsFromStringRows builds typed columns from string cells. Shared by
// the CSV and XLSX loaders.
func columnsFromStringRows(header []string, rows [][]string) (*dataset.Table, error) {
	cols := make([]*dataset.Column, len(header))
	for ci, name := range header {
		strs := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for ri, row := range rows {
			if ci < len(row) && strings.TrimSpace(row[ci]) != "" {
				strs[ri] = row[ci]
				valid[ri] = true
			}
		}
		cols[ci] = inferColumn(name, strs, valid)
	}
	return dataset.New(cols)
}

// inferColumn promotes a string column to numeric when every non-missing
// cell parses as a number and at least one cell is non-missing.
func inferColumn(name string, strs []string, valid []bool) *dataset.Column {
	numbers := make([]float64, len(strs))
	numeric := false
	for i := range strs {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(strs[i]), 64)
		if err != nil {
			return &dataset.Column{Name: name, Kind: dataset.KindString, Strings: strs, Valid: valid}
		}
		numbers[i] = v
		numeric = true
	}
	if !numeric {
		return &dataset.Column{Name: name, Kind: dataset.KindString, Strings: strs, Valid: valid}
	}
	return &dataset.Column{Name: name, Kind: dataset.KindNumber, Numbers: numbers, Valid: valid}
}
