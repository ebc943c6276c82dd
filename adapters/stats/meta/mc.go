package meta

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/domain/policy"
	"gotier/domain/simulation"
)

// Simulator runs the seeded Monte Carlo tail-probability estimate.
// All randomness flows through a single source created from the policy seed,
// so the same evidence, policy and seed reproduce every draw.
type Simulator struct {
	cfg policy.MonteCarloConfig
}

// NewSimulator creates a simulator bound to a Monte Carlo policy
func NewSimulator(cfg policy.MonteCarloConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run pools the normalized effects, estimates the between-study variance and
// simulates the tail probability P(effect > delta).
func (s *Simulator) Run(rows []evidence.NormalizedEffect, delta float64, fingerprint core.PolicyFingerprint) (*simulation.Result, error) {
	if len(rows) == 0 {
		return nil, core.NewInsufficientEvidenceError(0, 1)
	}

	tau2 := EstimateTau2(rows)
	pooled, err := Pool(rows, tau2.Value)
	if err != nil {
		return nil, err
	}

	seMu := math.Sqrt(pooled.VarMu)
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	exceed := 0
	for i := 0; i < s.cfg.Draws; i++ {
		draw := pooled.MuHat + seMu*rng.NormFloat64()
		if draw > delta {
			exceed++
		}
	}
	tailProb := float64(exceed) / float64(s.cfg.Draws)

	z := distuv.UnitNormal.Quantile(0.975)
	predSE := math.Sqrt(tau2.Value + pooled.VarMu)

	return &simulation.Result{
		MuHat:    pooled.MuHat,
		VarMu:    pooled.VarMu,
		Tau2:     tau2,
		I2:       pooled.I2,
		Q:        pooled.Q,
		TailProb: tailProb,
		MuCI95: simulation.Interval{
			Low:  pooled.MuHat - z*seMu,
			High: pooled.MuHat + z*seMu,
		},
		PredictionInterval95: simulation.Interval{
			Low:  pooled.MuHat - z*predSE,
			High: pooled.MuHat + z*predSE,
		},
		Delta:             delta,
		Seed:              s.cfg.Seed,
		Draws:             s.cfg.Draws,
		NStudies:          len(rows),
		PolicyFingerprint: fingerprint,
	}, nil
}
