// Package ingest turns uploaded spreadsheets into header-keyed rows.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmpty             = errors.New("file has no data rows")
	ErrMalformed         = errors.New("malformed file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Row maps a trimmed header name to the trimmed cell value.
type Row map[string]string

func (r Row) Get(column string) string {
	return r[column]
}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (csv or xlsx only)", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// Parse picks the parser from the file extension.
func Parse(fileName string, data []byte) ([]Row, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}

// ParseCSV reads UTF-8 CSV with a header line. A leading byte-order mark is
// dropped and blank lines are skipped. Rows may be ragged: missing cells read
// as blank and cells past the header are ignored.
func ParseCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	columns := normalizeHeader(header)

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if row, ok := buildRow(columns, record); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

// ParseXLSX reads the first sheet of a workbook; its first row is the header.
func ParseXLSX(data []byte) ([]Row, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) < 2 {
		return nil, ErrEmpty
	}

	columns := normalizeHeader(records[0])
	var rows []Row
	for _, record := range records[1:] {
		if row, ok := buildRow(columns, record); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}
	return columns
}

// buildRow reports ok=false for a row whose cells are all blank.
func buildRow(columns, record []string) (Row, bool) {
	row := make(Row, len(columns))
	blank := true
	for i, column := range columns {
		if column == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		if value != "" {
			blank = false
		}
		row[column] = value
	}
	return row, !blank
}
