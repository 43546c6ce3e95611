// Package loader reads pipeline input rows from CSV files.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("required column is missing")
	// ErrEmptyInput is returned when the file has no header row.
	ErrEmptyInput = errors.New("input file has no header")
)

const utf8BOM = "\ufeff"

// ReadColumns parses the CSV file at path and returns, for each data row, the values of the
// requested columns in the requested order. Row order is preserved and missing cells are
// returned as empty strings; blank values are not filtered.
func ReadColumns(path string, columns ...string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: '%s'", ErrEmptyInput, path)
		}
		return nil, fmt.Errorf("failed to read header of '%s': %w", path, err)
	}

	colIdx := make(map[string]int, len(header))
	for idx, name := range header {
		if idx == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, seen := colIdx[name]; !seen {
			colIdx[name] = idx
		}
	}

	positions := make([]int, len(columns))
	for i, column := range columns {
		idx, ok := colIdx[column]
		if !ok {
			return nil, fmt.Errorf("%w: the CSV file '%s' must have a column named '%s'", ErrMissingColumn, path, column)
		}
		positions[i] = idx
	}

	var rows [][]string
	for {
		record, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			break
		}
		if errRead != nil {
			return nil, fmt.Errorf("failed to read row of '%s': %w", path, errRead)
		}

		row := make([]string, len(positions))
		for i, idx := range positions {
			if idx < len(record) {
				row[i] = record[idx]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadColumn returns the values of a single column, one per data row.
func ReadColumn(path, column string) ([]string, error) {
	rows, err := ReadColumns(path, column)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = row[0]
	}

	return values, nil
}
