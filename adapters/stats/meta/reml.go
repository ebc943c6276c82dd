package meta

import (
	"math"

	"gotier/domain/evidence"
	"gotier/domain/simulation"
)

const (
	gridPoints = 400
	tau2Floor  = 1e-10
)

// EstimateTau2 estimates the between-study variance by profiling the
// restricted likelihood over a fixed tau-squared grid. The grid is coarse
// geometric over [1e-10, 100*max(v)] followed by a linear refinement around
// the coarse minimum, so the result is identical on every run and platform.
// A single study carries no between-study information, so tau-squared is
// exactly zero there. When the profile is degenerate (non-finite everywhere)
// the DerSimonian-Laird moment estimator is used and the estimate is tagged
// as a fallback.
func EstimateTau2(rows []evidence.NormalizedEffect) simulation.TauEstimate {
	if len(rows) < 2 {
		return simulation.TauEstimate{Method: simulation.TauREML, Value: 0, Converged: true}
	}

	maxV := 0.0
	for _, r := range rows {
		if r.Variance > maxV {
			maxV = r.Variance
		}
	}
	upper := 100.0 * maxV
	if upper <= tau2Floor {
		return momentFallback(rows, "degenerate study variances")
	}

	// Coarse pass: geometric spacing covers the orders of magnitude.
	coarse := geometricGrid(tau2Floor, upper, gridPoints)
	bestIdx, bestNLL := argminNLL(rows, coarse)
	if math.IsInf(bestNLL, 1) {
		return momentFallback(rows, "restricted likelihood non-finite over search grid")
	}

	// Refinement pass: linear spacing between the coarse neighbors.
	lo := tau2Floor
	if bestIdx > 0 {
		lo = coarse[bestIdx-1]
	}
	hi := upper
	if bestIdx < len(coarse)-1 {
		hi = coarse[bestIdx+1]
	}
	fine := linearGrid(lo, hi, gridPoints)
	fineIdx, fineNLL := argminNLL(rows, fine)
	if math.IsInf(fineNLL, 1) {
		return momentFallback(rows, "restricted likelihood non-finite under refinement")
	}

	return simulation.TauEstimate{
		Method:    simulation.TauREML,
		Value:     fine[fineIdx],
		Converged: true,
	}
}

// restrictedNLL is the negative restricted log-likelihood at a fixed tau2,
// up to an additive constant.
func restrictedNLL(rows []evidence.NormalizedEffect, tau2 float64) float64 {
	sumW := 0.0
	sumWY := 0.0
	sumLog := 0.0
	for _, r := range rows {
		v := r.Variance + tau2
		if v <= 0 {
			return math.Inf(1)
		}
		w := 1.0 / v
		sumW += w
		sumWY += w * r.Y
		sumLog += math.Log(v)
	}
	mu := sumWY / sumW

	resid := 0.0
	for _, r := range rows {
		diff := r.Y - mu
		resid += diff * diff / (r.Variance + tau2)
	}

	nll := 0.5 * (sumLog + math.Log(sumW) + resid)
	if math.IsNaN(nll) {
		return math.Inf(1)
	}
	return nll
}

func argminNLL(rows []evidence.NormalizedEffect, grid []float64) (int, float64) {
	bestIdx := 0
	bestNLL := math.Inf(1)
	for i, tau2 := range grid {
		nll := restrictedNLL(rows, tau2)
		if nll < bestNLL {
			bestIdx = i
			bestNLL = nll
		}
	}
	return bestIdx, bestNLL
}

func geometricGrid(lo, hi float64, n int) []float64 {
	grid := make([]float64, n)
	logLo := math.Log(lo)
	logHi := math.Log(hi)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		grid[i] = math.Exp(logLo + frac*(logHi-logLo))
	}
	return grid
}

func linearGrid(lo, hi float64, n int) []float64 {
	grid := make([]float64, n)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		grid[i] = lo + frac*(hi-lo)
	}
	return grid
}

// momentFallback is the DerSimonian-Laird estimator, clamped at zero.
func momentFallback(rows []evidence.NormalizedEffect, reason string) simulation.TauEstimate {
	est := simulation.TauEstimate{
		Method:         simulation.TauMomentFallback,
		Converged:      false,
		FallbackReason: reason,
	}
	if len(rows) < 2 {
		return est
	}

	sumW := 0.0
	sumW2 := 0.0
	sumWY := 0.0
	for _, r := range rows {
		w := 1.0 / r.Variance
		sumW += w
		sumW2 += w * w
		sumWY += w * r.Y
	}
	mu := sumWY / sumW

	q := 0.0
	for _, r := range rows {
		diff := r.Y - mu
		q += diff * diff / r.Variance
	}

	df := float64(len(rows) - 1)
	denom := sumW - sumW2/sumW
	if denom <= 0 {
		return est
	}
	est.Value = math.Max(0, (q-df)/denom)
	return est
}
