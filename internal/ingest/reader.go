// Package ingest loads tabular catalog data into the catalog store and
// recomputes derived attributes of stored entries.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedFormat is returned for files that are neither XLSX nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file has no header row")
)

// Row is one catalog row as read from a file.
type Row struct {
	ID           string `col:"id"`
	Brand        string `col:"brand" validate:"required"`
	Category     string `col:"category" validate:"required"`
	Unit         string `col:"unit" validate:"required"`
	PackQty      string `col:"pack_qty" validate:"omitempty,numeric"`
	PackUnit     string `col:"pack_unit" validate:"required_with=PackQty"`
	Description  string `col:"description"`
	Type         string `col:"type" validate:"required"`
	Material     string `col:"material"`
	Variant      string `col:"variant"`
	Size         string `col:"size"`
	SizeUnit     string `col:"size_unit"`
	CanonicalKey string `col:"canonical_key"`
	Status       string `col:"status" validate:"omitempty,oneof=active retired"`
	Line         int
}

var columnSetters = map[string]func(*Row, string){
	"id":            func(r *Row, v string) { r.ID = v },
	"brand":         func(r *Row, v string) { r.Brand = v },
	"category":      func(r *Row, v string) { r.Category = v },
	"unit":          func(r *Row, v string) { r.Unit = v },
	"pack_qty":      func(r *Row, v string) { r.PackQty = v },
	"pack_unit":     func(r *Row, v string) { r.PackUnit = v },
	"description":   func(r *Row, v string) { r.Description = v },
	"type":          func(r *Row, v string) { r.Type = v },
	"material":      func(r *Row, v string) { r.Material = v },
	"variant":       func(r *Row, v string) { r.Variant = v },
	"size":          func(r *Row, v string) { r.Size = v },
	"size_unit":     func(r *Row, v string) { r.SizeUnit = v },
	"canonical_key": func(r *Row, v string) { r.CanonicalKey = v },
	"status":        func(r *Row, v string) { r.Status = strings.ToLower(v) },
}

var requiredColumns = []string{"brand", "category", "unit", "type"}

// ReadFile reads rows from an .xlsx or .csv file.
func ReadFile(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".csv":
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadXLSX reads rows from the first sheet of an Excel workbook.
func ReadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRecords(records, nil)
}

// ReadCSV reads rows from comma-separated text with a header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return parseRecords(records, lines)
}

// parseRecords maps records onto rows by header name. lines holds the source
// line of each record; when nil, records are numbered from 1.
func parseRecords(records [][]string, lines []int) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	columns := make(map[int]func(*Row, string))
	seen := make(map[string]bool)
	for i, header := range records[0] {
		name := headerKey(header)
		if setter, ok := columnSetters[name]; ok {
			columns[i] = setter
			seen[name] = true
		}
	}
	for _, name := range requiredColumns {
		if !seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var rows []Row
	for n := 1; n < len(records); n++ {
		record := records[n]
		if isBlank(record) {
			continue
		}
		row := Row{Line: n + 1}
		if lines != nil {
			row.Line = lines[n]
		}
		for i, value := range record {
			if setter, ok := columns[i]; ok {
				setter(&row, strings.TrimSpace(value))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerKey maps "Pack Qty", "pack-qty" and "PACK_QTY" to "pack_qty".
func headerKey(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
