package bulk

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	cerrors "move-cost/internal/errors"
)

const (
	resultsSheet  = "Results"
	templateSheet = "Template"
)

// ResultColumns is the header of an exported results file
var ResultColumns = []string{
	"Row Number", "Status", "Error", "Origin", "Destination",
	"Distance (miles)", "Weight (lbs)", "Total Should Cost", "Cost per Lb",
	"Material Cost", "Transportation Cost", "Tariffs & Taxes", "Additional Costs",
	"Packing Cost", "Storage Cost", "Fuel Charge", "Insurance Cost",
	"Origin Region", "Destination Region", "Packing Service", "Storage Option",
}

// exportRow flattens a result into ResultColumns order
func exportRow(r *RowResult) []interface{} {
	if r.Status != StatusSuccess || r.CostBreakdown == nil {
		errMsg := r.Error
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		row := make([]interface{}, len(ResultColumns))
		row[0], row[1], row[2] = r.RowNumber, "FAILED", errMsg
		row[3], row[4] = orNA(r.Origin), orNA(r.Destination)
		row[7] = 0.0
		for i := range row {
			if row[i] == nil {
				row[i] = ""
			}
		}
		return row
	}

	b := r.Breakdown
	return []interface{}{
		r.RowNumber, "SUCCESS", "", r.Origin, r.Destination,
		r.DistanceMiles, r.WeightPounds,
		r.TotalShouldCost.Float64(), r.CostPerPound().Float64(),
		b.MaterialAdjustedCost.Float64(), b.TransportationCost.Float64(),
		b.TotalTariffsAndTaxes.Float64(), b.AdditionalCosts().Float64(),
		b.PackingCost.Float64(), b.StorageCost.Float64(), b.FuelCharge.Float64(), b.InsuranceCost.Float64(),
		string(b.OriginRegion), string(b.DestinationRegion),
		string(b.PackingService), string(b.StorageOption),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// WriteResults writes results as a spreadsheet in the given format
func WriteResults(w io.Writer, format FileFormat, results []*RowResult) error {
	rows := make([][]interface{}, 0, len(results)+1)
	rows = append(rows, strings2cells(ResultColumns))
	for _, r := range results {
		rows = append(rows, exportRow(r))
	}
	return write(w, format, resultsSheet, rows)
}

// TemplateRows are the example moves written to a blank template
var TemplateRows = [][]interface{}{
	{"Bentonville, AR", "Seattle, WA", 5000, "", "self_pack", "no_storage", true},
	{"Austin, TX", "Miami, FL", 8000, "", "partial_pack", "storage_30days", true},
	{"New York, NY", "Los Angeles, CA", 3500, "", "full_pack", "storage_60days", false},
}

// TemplateInstructions follow the example rows after a blank row
var TemplateInstructions = []string{
	"INSTRUCTIONS:",
	"- origin: City, State or ZIP code (required)",
	"- destination: City, State or ZIP code (required)",
	"- weight: Total weight in pounds (required, must be > 0)",
	"- distance_miles: Optional, leave blank for auto-calculation",
	"- packing_service: self_pack, partial_pack, or full_pack",
	"- storage_option: no_storage, storage_30days, or storage_60days",
	"- include_insurance: TRUE or FALSE",
}

// WriteTemplate writes an upload template. Readers stop at the blank row
// before the instructions, so a filled-in template uploads as-is.
func WriteTemplate(w io.Writer, format FileFormat) error {
	header := append(append([]string{}, RequiredColumns...), OptionalColumns...)
	rows := [][]interface{}{strings2cells(header)}
	rows = append(rows, TemplateRows...)
	rows = append(rows, make([]interface{}, len(header)))
	for _, line := range TemplateInstructions {
		rows = append(rows, []interface{}{line})
	}
	return write(w, format, templateSheet, rows)
}

func strings2cells(ss []string) []interface{} {
	cells := make([]interface{}, len(ss))
	for i, s := range ss {
		cells[i] = s
	}
	return cells
}

func write(w io.Writer, format FileFormat, sheet string, rows [][]interface{}) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatXLSX:
		return writeXLSX(w, sheet, rows)
	}
	return cerrors.Inputf("unsupported export format %q", format)
}

func writeCSV(w io.Writer, rows [][]interface{}) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = csvCell(v)
		}
		if err := cw.Write(record); err != nil {
			return cerrors.Internal("failed to write CSV", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return cerrors.Internal("failed to write CSV", err)
	}
	return nil
}

func csvCell(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	}
	return ""
}

func blankCells(row []interface{}) bool {
	for _, v := range row {
		if csvCell(v) != "" {
			return false
		}
	}
	return true
}

func writeXLSX(w io.Writer, sheet string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return cerrors.Internal("failed to name sheet", err)
	}
	for i, row := range rows {
		if blankCells(row) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return cerrors.Internal("failed to address cell", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return cerrors.Internal("failed to write row", err)
		}
	}
	if err := f.Write(w); err != nil {
		return cerrors.Internal("failed to write workbook", err)
	}
	return nil
}
