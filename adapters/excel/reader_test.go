package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotier/domain/core"
	"gotier/domain/evidence"
)

const csvHeader = "study_id,year,design,effect_type,effect_point,ci_low,ci_high,n_treat,n_ctrl,risk_of_bias,venue_id,outcome,population,adverse_events,duration_weeks\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evidence.csv")
	if err := os.WriteFile(path, []byte(csvHeader+body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoad_ParsesFullSchema(t *testing.T) {
	path := writeCSV(t,
		"s1,2021,rct,SMD,0.35,0.10,0.60,60,58,low,venue-a,working memory,healthy adults,none reported,12\n"+
			"s2,2023,cohort,OR,0.70,0.50,0.95,120,130,some,venue-b,recall accuracy,older adults,,24\n")

	set, err := NewDataReader().Load(context.Background(), core.EntryID("e1"), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(set.Rows))
	}

	r := set.Rows[0]
	if r.StudyID != core.StudyID("s1") || r.Year != 2021 {
		t.Fatalf("row 1 identity wrong: %+v", r)
	}
	if r.Design != evidence.DesignRandomized || r.EffectType != evidence.EffectSMD {
		t.Fatalf("row 1 enums wrong: %+v", r)
	}
	if r.Effect != 0.35 || r.CILow != 0.10 || r.CIHigh != 0.60 {
		t.Fatalf("row 1 effect wrong: %+v", r)
	}
	if r.NTreat != 60 || r.NCtrl != 58 || r.DurationWeeks != 12 {
		t.Fatalf("row 1 sizes wrong: %+v", r)
	}
	if r.RiskOfBias != evidence.BiasLow || r.VenueID != core.VenueID("venue-a") {
		t.Fatalf("row 1 metadata wrong: %+v", r)
	}

	if set.Rows[1].EffectType != evidence.EffectOR || set.Rows[1].RiskOfBias != evidence.BiasSome {
		t.Fatalf("row 2 decoded wrong: %+v", set.Rows[1])
	}
}

func TestLoad_SkipsBlankPaddingRows(t *testing.T) {
	path := writeCSV(t,
		"s1,2021,rct,SMD,0.35,0.10,0.60,60,58,low,venue-a,memory,,,12\n"+
			",,,,,,,,,,,,,,\n")

	set, err := NewDataReader().Load(context.Background(), core.EntryID("e1"), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set.Rows) != 1 {
		t.Fatalf("expected blank row skipped, got %d rows", len(set.Rows))
	}
}

func TestLoad_RejectsMissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.csv")
	if err := os.WriteFile(path, []byte("study_id,effect_point\ns1,0.35\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := NewDataReader().Load(context.Background(), core.EntryID("e1"), path); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestLoad_ReportsOffendingRow(t *testing.T) {
	path := writeCSV(t,
		"s1,2021,rct,SMD,0.35,0.10,0.60,60,58,low,venue-a,memory,,,12\n"+
			"s2,2021,rct,SMD,not-a-number,0.10,0.60,60,58,low,venue-a,memory,,,12\n")

	_, err := NewDataReader().Load(context.Background(), core.EntryID("e1"), path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got := err.Error(); !strings.Contains(got, "row 3") || !strings.Contains(got, "effect_point") {
		t.Fatalf("error must name the row and field, got %q", got)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := NewDataReader().Load(context.Background(), core.EntryID("e1"), "/nonexistent.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
