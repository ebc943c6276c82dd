package evidence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gotier/domain/core"
)

// Design describes how a study allocated its subjects
type Design string

const (
	DesignRandomized  Design = "randomized"
	DesignCohort      Design = "cohort"
	DesignCaseControl Design = "case_control"
	DesignOther       Design = "other"
)

// ParseDesign maps free-form design strings onto the enum
func ParseDesign(s string) (Design, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(s)); normalized {
	case "randomized", "rct", "randomized_controlled_trial":
		return DesignRandomized, nil
	case "cohort", "prospective_cohort", "retrospective_cohort":
		return DesignCohort, nil
	case "case_control", "case-control":
		return DesignCaseControl, nil
	case "other", "cross_sectional", "cross-sectional":
		return DesignOther, nil
	default:
		return "", fmt.Errorf("unknown study design %q", s)
	}
}

// EffectType describes the scale an effect estimate was reported on
type EffectType string

const (
	EffectSMD EffectType = "SMD" // standardized mean difference
	EffectMD  EffectType = "MD"  // mean difference
	EffectOR  EffectType = "OR"  // odds ratio
	EffectRR  EffectType = "RR"  // risk ratio
)

// IsRatio reports whether the effect is on a ratio scale and needs a log
// transform before pooling.
func (t EffectType) IsRatio() bool {
	return t == EffectOR || t == EffectRR
}

// ParseEffectType maps a string onto the enum
func ParseEffectType(s string) (EffectType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SMD":
		return EffectSMD, nil
	case "MD":
		return EffectMD, nil
	case "OR":
		return EffectOR, nil
	case "RR":
		return EffectRR, nil
	default:
		return "", fmt.Errorf("unknown effect type %q", s)
	}
}

// RiskOfBias is the study-level bias assessment category
type RiskOfBias string

const (
	BiasLow  RiskOfBias = "low"
	BiasSome RiskOfBias = "some"
	BiasHigh RiskOfBias = "high"
)

// ParseRiskOfBias maps a string onto the enum
func ParseRiskOfBias(s string) (RiskOfBias, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return BiasLow, nil
	case "some", "some_concerns", "moderate":
		return BiasSome, nil
	case "high":
		return BiasHigh, nil
	default:
		return "", fmt.Errorf("unknown risk of bias %q", s)
	}
}

// StudyRecord is one study's effect-size observation, as it arrives from an
// evidence table. All downstream statistics run on the normalized form, never
// on the raw record.
type StudyRecord struct {
	StudyID    core.StudyID    `json:"study_id"`
	Year       int             `json:"year"`
	Design     Design          `json:"design"`
	EffectType EffectType      `json:"effect_type"`
	Effect     float64         `json:"effect_point"`
	CILow      float64         `json:"ci_low"`
	CIHigh     float64         `json:"ci_high"`
	NTreat     int             `json:"n_treat"`
	NCtrl      int             `json:"n_ctrl"`
	RiskOfBias RiskOfBias      `json:"risk_of_bias"`
	DocumentID core.DocumentID `json:"document_id"`
	VenueID    core.VenueID    `json:"venue_id"`

	// Free-text context consumed by the rule gates, not by the estimator
	Outcome       string `json:"outcome,omitempty"`
	Population    string `json:"population,omitempty"`
	AdverseEvents string `json:"adverse_events,omitempty"`
	DurationWeeks int    `json:"duration_weeks,omitempty"`
}

// TotalN returns the combined group size
func (r StudyRecord) TotalN() int {
	return r.NTreat + r.NCtrl
}

// NormalizedEffect is a study effect on the pooled, benefit-positive scale:
// ratio effects log-transformed, difference effects untouched, and the
// category benefit direction applied by sign flip.
type NormalizedEffect struct {
	StudyID  core.StudyID `json:"study_id"`
	VenueID  core.VenueID `json:"venue_id"`
	Y        float64      `json:"y"`
	SE       float64      `json:"se"`
	Variance float64      `json:"variance"`
	Weight   int          `json:"weight"` // total group size, used by the relevance gate
}

// Set is the evidence for a single entry
type Set struct {
	EntryID core.EntryID  `json:"entry_id"`
	Rows    []StudyRecord `json:"rows"`
}

// VenueIDs returns the distinct venue identifiers referenced by the set,
// sorted for deterministic iteration.
func (s Set) VenueIDs() []core.VenueID {
	seen := make(map[core.VenueID]bool, len(s.Rows))
	var ids []core.VenueID
	for _, row := range s.Rows {
		if !seen[row.VenueID] {
			seen[row.VenueID] = true
			ids = append(ids, row.VenueID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ContentHash returns a deterministic hash of the evidence content.
// Rows are sorted by study id before hashing so the hash is independent of
// table ordering.
func (s Set) ContentHash() core.EvidenceHash {
	rows := make([]StudyRecord, len(s.Rows))
	copy(rows, s.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudyID < rows[j].StudyID })

	data, err := json.Marshal(rows)
	if err != nil {
		// StudyRecord contains only marshalable fields; reaching here means
		// the type definition itself is broken.
		panic(fmt.Sprintf("evidence content hash: %v", err))
	}
	return core.NewEvidenceHash(data)
}
