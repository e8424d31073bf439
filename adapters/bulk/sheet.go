// Package bulk prices many moves from a spreadsheet upload and exports the
// results. Each row is priced independently; a bad row never aborts a batch.
package bulk

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	cerrors "move-cost/internal/errors"
)

// Column names
const (
	ColOrigin           = "origin"
	ColDestination      = "destination"
	ColWeight           = "weight"
	ColDistanceMiles    = "distance_miles"
	ColPackingService   = "packing_service"
	ColStorageOption    = "storage_option"
	ColIncludeInsurance = "include_insurance"
)

// RequiredColumns must be present in every upload
var RequiredColumns = []string{ColOrigin, ColDestination, ColWeight}

// OptionalColumns fall back to defaults when absent
var OptionalColumns = []string{ColDistanceMiles, ColPackingService, ColStorageOption, ColIncludeInsurance}

// FileFormat is a spreadsheet container format
type FileFormat string

const (
	FormatXLSX FileFormat = "xlsx"
	FormatCSV  FileFormat = "csv"
)

// FormatFromFilename picks a format by extension
func FormatFromFilename(name string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", cerrors.Inputf("unsupported file type %q: upload an .xlsx or .csv file", filepath.Ext(name))
}

// Sheet is a decoded upload: a normalized header and the data rows under it.
// Data ends at the first completely blank row.
type Sheet struct {
	Header []string
	Rows   []Row
	index  map[string]int
}

// Row is one data row
type Row struct {
	// Number is the spreadsheet row number; the header is row 1
	Number int
	cells  []string
	sheet  *Sheet
}

// Get returns the trimmed cell for a column, "" when the column is absent
func (r Row) Get(col string) string {
	i, ok := r.sheet.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Has reports whether the sheet has a column
func (s *Sheet) Has(col string) bool {
	_, ok := s.index[col]
	return ok
}

// NewSheet builds a sheet from raw records; the first record is the header
func NewSheet(records [][]string) *Sheet {
	s := &Sheet{index: make(map[string]int)}
	if len(records) == 0 {
		return s
	}

	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		s.Header = append(s.Header, name)
		if _, dup := s.index[name]; !dup && name != "" {
			s.index[name] = i
		}
	}

	for i, cells := range records[1:] {
		if blank(cells) {
			break
		}
		s.Rows = append(s.Rows, Row{Number: i + 2, cells: cells, sheet: s})
	}
	return s
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadSheet decodes an upload by its filename's extension
func ReadSheet(r io.Reader, filename string) (*Sheet, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	default:
		records, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, cerrors.Parsing("file is empty", nil)
	}
	return NewSheet(records), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cerrors.Parsing("error reading file", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, cerrors.Parsing("error reading CSV file", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, cerrors.Parsing("error reading Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, cerrors.Parsing("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, cerrors.Parsing("error reading Excel sheet "+sheets[0], err)
	}
	return rows, nil
}
