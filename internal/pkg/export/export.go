// Package export writes sizing solutions to disk: per-solution simulation
// results and design, and the whole frontier as CSV and as a workbook.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/sizing"
	"github.com/xuri/excelize/v2"
)

const (
	ResultsFilename  = "results.csv"
	DesignFilename   = "design.json"
	FrontierCSV      = "rightsize.csv"
	FrontierWorkbook = "rightsize.xlsx"
)

var ErrNoMetrics = errors.New("export: solution carries no metrics")

var frontierHeaders = []string{"diesel_generator", "photovoltaic_panel", "battery"}

// Files writes each solution into its own directory under dir.
type Files struct{}

// Export fulfills sizing.Exporter.
func (Files) Export(ctx context.Context, dir string, s sizing.Solution) error {
	if s.Metrics == nil {
		return ErrNoMetrics
	}
	path := filepath.Join(dir, s.Name())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	if err := writeResults(filepath.Join(path, ResultsFilename), s); err != nil {
		return err
	}
	design, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, DesignFilename), design, 0o644)
}

func writeResults(path string, s sizing.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"start", "end", "load", "supply", "deficit"}); err != nil {
		return err
	}
	m := s.Metrics
	for i, p := range m.Periods() {
		row := []string{
			p.Start().Format(time.RFC3339),
			p.End().Format(time.RFC3339),
			formatFloat(m.Load(i)),
			formatFloat(m.Supply(i)),
			formatFloat(m.Deficit(i)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func frontierRows(f sizing.Frontier) [][]float64 {
	rows := make([][]float64, len(f))
	for i, s := range f {
		rows[i] = []float64{s.Diesel, s.Photovoltaic, s.Battery}
	}
	return rows
}

// WriteFrontierCSV writes one row per solution: diesel, photovoltaic, battery.
func WriteFrontierCSV(path string, f sizing.Frontier) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(frontierHeaders); err != nil {
		return err
	}
	for _, row := range frontierRows(f) {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatFloat(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return out.Close()
}

// WriteFrontierXLSX writes the frontier to the first sheet of a new workbook.
func WriteFrontierXLSX(path string, f sizing.Frontier) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := "Sheet1"
	if idx, err := wb.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := wb.NewSheet(sheet)
		if err != nil {
			return err
		}
		wb.SetActiveSheet(idx)
	}

	for i, h := range frontierHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := wb.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range frontierRows(f) {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return wb.SaveAs(path)
}

// WriteFrontier writes both frontier files into dir.
func WriteFrontier(dir string, f sizing.Frontier) error {
	if err := WriteFrontierCSV(filepath.Join(dir, FrontierCSV), f); err != nil {
		return err
	}
	return WriteFrontierXLSX(filepath.Join(dir, FrontierWorkbook), f)
}
