package bulk

import (
	"fmt"
	"strings"
)

// ValidationReport describes whether an upload can be processed
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	RowCount int      `json:"row_count"`
}

// Validate checks columns, empty required cells and weights
func Validate(s *Sheet) ValidationReport {
	report := ValidationReport{Errors: []string{}, Warnings: []string{}, RowCount: len(s.Rows)}

	var missing []string
	for _, col := range RequiredColumns {
		if !s.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		report.Errors = append(report.Errors, "Missing required columns: "+strings.Join(missing, ", "))
	}

	if len(s.Rows) == 0 {
		report.Errors = append(report.Errors, "File contains no data rows")
	}

	if len(s.Rows) > 0 && len(missing) == 0 {
		for _, col := range RequiredColumns {
			empty := 0
			for _, row := range s.Rows {
				if row.Get(col) == "" {
					empty++
				}
			}
			if empty > 0 {
				report.Errors = append(report.Errors, fmt.Sprintf("Column '%s' has %d empty cell(s)", col, empty))
			}
		}

		invalid := 0
		for _, row := range s.Rows {
			raw := row.Get(ColWeight)
			if raw == "" {
				continue
			}
			if w, err := parseNumber(raw, ColWeight); err != nil || w <= 0 {
				invalid++
			}
		}
		if invalid > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Found %d row(s) with invalid weight (must be > 0)", invalid))
		}
	}

	var absent []string
	for _, col := range OptionalColumns {
		if !s.Has(col) {
			absent = append(absent, col)
		}
	}
	if len(absent) > 0 {
		report.Warnings = append(report.Warnings, "Optional columns not provided (defaults will be used): "+strings.Join(absent, ", "))
	}

	report.Valid = len(report.Errors) == 0
	return report
}
