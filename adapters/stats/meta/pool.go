package meta

import (
	"math"

	"gotier/domain/core"
	"gotier/domain/evidence"
)

// Pooled holds the inverse-variance pooling output for a fixed tau-squared
type Pooled struct {
	MuHat   float64
	VarMu   float64
	Weights []float64
	Q       float64
	I2      float64
}

// Pool computes the random-effects pooled estimate for the given
// between-study variance. Weights are 1/(v_i + tau2); the pooled mean is the
// weighted average and its variance is 1/sum(w).
func Pool(rows []evidence.NormalizedEffect, tau2 float64) (*Pooled, error) {
	if len(rows) == 0 {
		return nil, core.NewInsufficientEvidenceError(0, 1)
	}

	weights := make([]float64, len(rows))
	sumW := 0.0
	sumWY := 0.0
	for i, r := range rows {
		w := 1.0 / (r.Variance + tau2)
		weights[i] = w
		sumW += w
		sumWY += w * r.Y
	}

	muHat := sumWY / sumW
	varMu := 1.0 / sumW

	q, i2 := heterogeneity(rows, muHat)

	return &Pooled{
		MuHat:   muHat,
		VarMu:   varMu,
		Weights: weights,
		Q:       q,
		I2:      i2,
	}, nil
}

// heterogeneity computes Cochran's Q against the fixed-effect pooled mean
// and the I-squared percentage derived from it.
func heterogeneity(rows []evidence.NormalizedEffect, _ float64) (float64, float64) {
	sumW := 0.0
	sumWY := 0.0
	for _, r := range rows {
		w := 1.0 / r.Variance
		sumW += w
		sumWY += w * r.Y
	}
	muFixed := sumWY / sumW

	q := 0.0
	for _, r := range rows {
		diff := r.Y - muFixed
		q += diff * diff / r.Variance
	}

	df := float64(len(rows) - 1)
	if df <= 0 || q <= 0 {
		return q, 0
	}
	i2 := math.Max(0, (q-df)/q) * 100.0
	return q, i2
}
