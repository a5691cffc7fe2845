// Package analytics is a CSV analytics agent. Uploaded CSV files are
// loaded into a SQLite table and questions about them are answered by
// generating and running SQL.
package analytics

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column types, named after the pandas dtypes the model is used to.
const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeObject = "object"
)

// Column is a named, typed column
type Column struct {
	Name string
	Type string
}

// Table is a parsed CSV file. Empty cells are nil, other cells hold
// int64, float64 or string values according to the column type.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ParseCSV reads a CSV document with a header row and infers column types.
func ParseCSV(name string, data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no columns to parse from file")
	}

	header := records[0]
	t := &Table{Name: name, Columns: make([]Column, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		t.Columns[i] = Column{Name: h, Type: inferType(records[1:], i)}
	}

	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = convert(strings.TrimSpace(cell), t.Columns[i].Type)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// inferType returns int64 when every non-empty cell is an integer, float64
// when every non-empty cell is a number, and object otherwise. Integer
// columns with empty cells become float64.
func inferType(rows [][]string, col int) string {
	ints, floats, empty := true, true, false
	for _, row := range rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			empty = true
			continue
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			ints = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			floats = false
		}
	}
	switch {
	case ints && !empty:
		return TypeInt
	case floats:
		return TypeFloat
	}
	return TypeObject
}

func convert(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case TypeInt:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case TypeFloat:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return v
}

// Info describes the table for the SQL generating model.
func (t *Table) Info() string {
	width := 0
	for _, c := range t.Columns {
		width = max(width, len(c.Name))
	}
	lines := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		lines[i] = fmt.Sprintf("%-*s  %s", width, c.Name, c.Type)
	}
	return fmt.Sprintf("Table name=%s, columns info: %s", t.Name, strings.Join(lines, "\n"))
}
