package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/ports"
)

// DataReader loads evidence tables from Excel workbooks or CSV exports.
// Both formats share one header schema; the reader dispatches on extension.
type DataReader struct{}

var _ ports.EvidenceLoader = (*DataReader)(nil)

// NewDataReader creates an evidence table reader
func NewDataReader() *DataReader {
	return &DataReader{}
}

// Load reads the evidence table at path into a study set for the entry.
// Rows come back unvalidated; the build pipeline normalizes and rejects.
func (r *DataReader) Load(_ context.Context, entryID core.EntryID, path string) (*evidence.Set, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("evidence file not found: %s", path)
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		rows, err = readCSVRows(path)
	} else {
		rows, err = readWorkbookRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("evidence table needs a header row and at least one data row")
	}

	set, err := parseRows(entryID, rows)
	if err != nil {
		return nil, err
	}
	log.Printf("evidence: loaded %d studies for entry %s from %s", len(set.Rows), entryID, filepath.Base(path))
	return set, nil
}

func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("read Sheet1: %w", err)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// parseRows maps the shared header schema onto study records. Unknown
// columns are ignored so annotated exports load unchanged.
func parseRows(entryID core.EntryID, rows [][]string) (*evidence.Set, error) {
	headers := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		headers[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"study_id", "effect_type", "effect_point", "ci_low", "ci_high", "venue_id"} {
		if _, ok := headers[required]; !ok {
			return nil, fmt.Errorf("evidence table missing required column %q", required)
		}
	}

	set := &evidence.Set{EntryID: entryID}
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := headers[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if cell("study_id") == "" {
			continue // blank padding rows at the end of a sheet
		}

		record, err := parseRecord(cell)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		set.Rows = append(set.Rows, record)
	}
	return set, nil
}

func parseRecord(cell func(string) string) (evidence.StudyRecord, error) {
	var rec evidence.StudyRecord
	var err error

	rec.StudyID = core.StudyID(cell("study_id"))
	rec.VenueID = core.VenueID(cell("venue_id"))
	rec.DocumentID = core.DocumentID(cell("document_id"))
	rec.Outcome = cell("outcome")
	rec.Population = cell("population")
	rec.AdverseEvents = cell("adverse_events")

	if v := cell("year"); v != "" {
		if rec.Year, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("year: %w", err)
		}
	}
	if v := cell("design"); v != "" {
		if rec.Design, err = evidence.ParseDesign(v); err != nil {
			return rec, err
		}
	}
	if rec.EffectType, err = evidence.ParseEffectType(cell("effect_type")); err != nil {
		return rec, err
	}
	if rec.Effect, err = parseFloat(cell("effect_point"), "effect_point"); err != nil {
		return rec, err
	}
	if rec.CILow, err = parseFloat(cell("ci_low"), "ci_low"); err != nil {
		return rec, err
	}
	if rec.CIHigh, err = parseFloat(cell("ci_high"), "ci_high"); err != nil {
		return rec, err
	}
	if v := cell("n_treat"); v != "" {
		if rec.NTreat, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("n_treat: %w", err)
		}
	}
	if v := cell("n_ctrl"); v != "" {
		if rec.NCtrl, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("n_ctrl: %w", err)
		}
	}
	if v := cell("risk_of_bias"); v != "" {
		if rec.RiskOfBias, err = evidence.ParseRiskOfBias(v); err != nil {
			return rec, err
		}
	}
	if v := cell("duration_weeks"); v != "" {
		if rec.DurationWeeks, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("duration_weeks: %w", err)
		}
	}
	return rec, nil
}

func parseFloat(v, field string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%s: missing value", field)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return f, nil
}
