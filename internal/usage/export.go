package usage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/xuri/excelize/v2"
)

// ExportFormats lists the supported usage export formats.
func ExportFormats() []string {
	return []string{"json", "csv", "xlsx"}
}

var exportHeaders = []string{
	"ID", "Timestamp", "Provider", "Model", "Operation",
	"Input Tokens", "Output Tokens", "Total Tokens",
	"Estimated Cost (USD)", "Success", "Error Kind",
	"Confidence", "Processing (ms)",
}

// Export renders the full usage log in the requested format.
func (t *Tracker) Export(format string) ([]byte, error) {
	events, err := t.Events()
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return exportJSON(events)
	case "csv":
		return exportCSV(events)
	case "xlsx":
		return exportXLSX(events)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported export format: %q (supported: json, csv, xlsx)", format), nil)
	}
}

func exportJSON(events []types.UsageEvent) ([]byte, error) {
	if events == nil {
		events = []types.UsageEvent{}
	}
	out, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"Usage events failed to serialize", err)
	}
	return out, nil
}

func exportCSV(events []types.UsageEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"CSV header failed to write", err)
	}
	for _, e := range events {
		record := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			e.Provider,
			e.Model,
			string(e.Operation),
			strconv.FormatInt(e.InputTokens, 10),
			strconv.FormatInt(e.OutputTokens, 10),
			strconv.FormatInt(e.TokensUsed, 10),
			strconv.FormatFloat(e.EstimatedCost, 'f', 6, 64),
			strconv.FormatBool(e.Success),
			e.ErrorKind,
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			strconv.FormatInt(e.ProcessingTimeMS, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
				"CSV record failed to write", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"CSV flush failed", err)
	}
	return buf.Bytes(), nil
}

func exportXLSX(events []types.UsageEvent) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Usage"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
				"XLSX sheet failed to create", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range events {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.ID)
		write(2, e.Timestamp.Format(time.RFC3339))
		write(3, e.Provider)
		write(4, e.Model)
		write(5, string(e.Operation))
		write(6, e.InputTokens)
		write(7, e.OutputTokens)
		write(8, e.TokensUsed)
		write(9, e.EstimatedCost)
		write(10, e.Success)
		write(11, e.ErrorKind)
		write(12, e.Confidence)
		write(13, e.ProcessingTimeMS)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // event id
	_ = f.SetColWidth(sheet, "B", "B", 22) // timestamp
	_ = f.SetColWidth(sheet, "C", "E", 16)
	_ = f.SetColWidth(sheet, "F", "I", 14)
	_ = f.SetColWidth(sheet, "K", "K", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed,
			"XLSX workbook failed to write", err)
	}
	return buf.Bytes(), nil
}
