package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gotier/domain/simulation"
	"gotier/domain/verdict"
)

// CatalogWriter exports classified entries to an Excel workbook for review
type CatalogWriter struct{}

// NewCatalogWriter creates a workbook exporter
func NewCatalogWriter() *CatalogWriter {
	return &CatalogWriter{}
}

// ExportRow pairs a classification with its simulation for one workbook line
type ExportRow struct {
	Classification *verdict.Classification
	Simulation     *simulation.Result
}

// Write renders the catalog sheet and saves the workbook at path
func (w *CatalogWriter) Write(path string, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	headers := []string{
		"entry_id", "category", "tier", "label", "tail_prob",
		"mu_hat", "tau2", "i2", "n_studies", "total_n",
		"policy_fingerprint", "audit_hash", "built_at",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, row := range rows {
		c := row.Classification
		sim := row.Simulation
		values := []interface{}{
			c.EntryID.String(), c.Category, string(c.Tier), string(c.Label), c.TailProb,
			sim.MuHat, sim.Tau2.Value, sim.I2, sim.NStudies, sim.TotalN,
			c.PolicyFingerprint.Compact(), c.AuditHash.Compact(), c.BuiltAt.String(),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
