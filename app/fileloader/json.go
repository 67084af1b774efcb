package fileloader

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/ohler55/ojg/oj"

	"dataexplorer/app/dataset"
)

// LoadJSON parses a JSON document into a table. The document must be an
// array of records; anything else falls back to line-delimited parsing,
// mirroring the loader's behavior for ambiguous .json uploads.
func LoadJSON(data []byte) (*dataset.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	parsed, err := oj.Parse(data)
	if err != nil {
		return LoadJSONL(data)
	}

	arr, ok := parsed.([]interface{})
	if !ok {
		return LoadJSONL(data)
	}

	records := make([]map[string]interface{}, 0, len(arr))
	for i, el := range arr {
		rec, ok := el.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("JSON array element %d is not an object", i)
		}
		records = append(records, rec)
	}
	return tableFromRecords(records)
}

// LoadJSONL parses line-delimited JSON records into a table. Blank lines
// are skipped; every non-blank line must be a JSON object.
func LoadJSONL(data []byte) (*dataset.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	var records []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		parsed, err := oj.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON on line %d: %w", lineNo, err)
		}
		rec, ok := parsed.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("line %d is not a JSON object", lineNo)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan JSON lines: %w", err)
	}
	return tableFromRecords(records)
}

// tableFromRecords flattens a record list into columns. Column order is
// the order keys first appear, alphabetical within each record, so parsing
// the same document always yields the same table shape.
func tableFromRecords(records []map[string]interface{}) (*dataset.Table, error) {
	var names []string
	seen := make(map[string]bool)
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}

	cols := make([]*dataset.Column, len(names))
	for ci, name := range names {
		cols[ci] = jsonColumn(name, records)
	}
	return dataset.New(cols)
}

// jsonColumn builds one column from the named field of every record. The
// column is numeric when every present value is a JSON number; otherwise
// values are rendered as strings (nested objects and arrays serialize back
// to JSON text).
func jsonColumn(name string, records []map[string]interface{}) *dataset.Column {
	n := len(records)
	valid := make([]bool, n)
	numbers := make([]float64, n)
	numeric := true
	any := false
	for i, rec := range records {
		v, present := rec[name]
		if !present || v == nil {
			continue
		}
		valid[i] = true
		any = true
		switch num := v.(type) {
		case float64:
			numbers[i] = num
		case int64:
			numbers[i] = float64(num)
		case int:
			numbers[i] = float64(num)
		default:
			numeric = false
		}
	}
	if numeric && any {
		return &dataset.Column{Name: name, Kind: dataset.KindNumber, Numbers: numbers, Valid: valid}
	}

	strs := make([]string, n)
	for i, rec := range records {
		if !valid[i] {
			continue
		}
		strs[i] = jsonCellString(rec[name])
	}
	return &dataset.Column{Name: name, Kind: dataset.KindString, Strings: strs, Valid: valid}
}

func jsonCellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return oj.JSON(v)
	}
}
