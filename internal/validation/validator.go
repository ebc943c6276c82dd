package validation

import (
	"fmt"
	"math"
	"strings"

	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/domain/policy"
)

// z for a two-sided 95% interval; evidence tables report 95% CIs.
const z95 = 1.96

// RowError pinpoints one rejected study row
type RowError struct {
	StudyID core.StudyID
	Field   string
	Reason  string
}

func (e RowError) Error() string {
	return fmt.Sprintf("study %s: %s: %s", e.StudyID, e.Field, e.Reason)
}

// ValidationError aggregates every malformed row in an evidence set. Any
// malformed row aborts the build for that entry; screening of off-topic or
// blacklisted rows is the gates' job, not the validator's.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = r.Error()
	}
	return fmt.Sprintf("%s: %s", core.ErrInvalidEvidence, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return core.ErrInvalidEvidence }

// ValidationResult carries the normalized rows of a well-formed set
type ValidationResult struct {
	Normalized []evidence.NormalizedEffect
}

// Validator normalizes raw study rows onto the pooled, benefit-positive
// scale and enforces the category evidence floor.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every row, normalizes them and enforces the category
// minimum. Ratio effects (OR, RR) require strictly positive point and
// interval values; every effect requires ci_low < point < ci_high. A single
// malformed row fails the whole set: partial evidence tables are a curation
// error, never something to pool around.
func (v *Validator) Validate(set *evidence.Set, cat policy.CategoryPolicy) (*ValidationResult, error) {
	result := &ValidationResult{}
	var rowErrs []RowError

	for _, row := range set.Rows {
		norm, rowErr := v.normalizeRow(row, cat)
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		result.Normalized = append(result.Normalized, norm)
	}

	if len(rowErrs) > 0 {
		return nil, &ValidationError{Rows: rowErrs}
	}
	if len(result.Normalized) < cat.MinStudies {
		return nil, core.NewInsufficientEvidenceError(len(result.Normalized), cat.MinStudies)
	}
	return result, nil
}

func (v *Validator) normalizeRow(row evidence.StudyRecord, cat policy.CategoryPolicy) (evidence.NormalizedEffect, *RowError) {
	fail := func(field, reason string) (evidence.NormalizedEffect, *RowError) {
		return evidence.NormalizedEffect{}, &RowError{StudyID: row.StudyID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(row.StudyID.String()) == "" {
		return fail("study_id", "missing")
	}
	if row.VenueID.String() == "" {
		return fail("venue_id", "missing")
	}
	if row.NTreat <= 0 || row.NCtrl <= 0 {
		return fail("n", "group sizes must be positive")
	}
	if !cat.EffectAllowed(row.EffectType) {
		return fail("effect_type", fmt.Sprintf("%s not allowed for category", row.EffectType))
	}

	var y, se float64
	if row.EffectType.IsRatio() {
		if row.Effect <= 0 || row.CILow <= 0 || row.CIHigh <= 0 {
			return fail("effect_point", "ratio effects must be strictly positive")
		}
		if !(row.CILow < row.Effect && row.Effect < row.CIHigh) {
			return fail("ci", "interval must bracket the point estimate")
		}
		y = math.Log(row.Effect)
		se = (math.Log(row.CIHigh) - math.Log(row.CILow)) / (2 * z95)
	} else {
		if !(row.CILow < row.Effect && row.Effect < row.CIHigh) {
			return fail("ci", "interval must bracket the point estimate")
		}
		y = row.Effect
		se = (row.CIHigh - row.CILow) / (2 * z95)
	}

	if se <= 0 || math.IsNaN(se) || math.IsInf(se, 0) {
		return fail("ci", "interval yields a non-positive standard error")
	}

	y *= float64(cat.BenefitDirection)

	return evidence.NormalizedEffect{
		StudyID:  row.StudyID,
		VenueID:  row.VenueID,
		Y:        y,
		SE:       se,
		Variance: se * se,
		Weight:   row.TotalN(),
	}, nil
}
