package simulation

import "gotier/domain/core"

// TauMethod identifies how the between-study variance was estimated.
type TauMethod string

const (
	TauREML           TauMethod = "reml"
	TauMomentFallback TauMethod = "moment_fallback"
)

// TauEstimate carries the between-study variance and how it was obtained.
// Converged is false when the profile search failed and the moment estimator
// was used instead; FallbackReason explains why.
type TauEstimate struct {
	Method         TauMethod `json:"method"`
	Value          float64   `json:"value"`
	Converged      bool      `json:"converged"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
}

// Interval is a symmetric two-sided interval.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Result is the full output of one pooling-and-simulation run. Given the same
// normalized rows, policy and seed, every field is bit-for-bit reproducible.
type Result struct {
	MuHat                float64                `json:"mu_hat"`
	VarMu                float64                `json:"var_mu"`
	Tau2                 TauEstimate            `json:"tau2"`
	I2                   float64                `json:"i2"`
	Q                    float64                `json:"q"`
	TailProb             float64                `json:"tail_prob"`
	MuCI95               Interval               `json:"mu_ci95"`
	PredictionInterval95 Interval               `json:"prediction_interval_95"`
	Delta                float64                `json:"delta"`
	Seed                 int64                  `json:"seed"`
	Draws                int                    `json:"draws"`
	NStudies             int                    `json:"n_studies"`
	TotalN               int                    `json:"total_n"`
	PolicyFingerprint    core.PolicyFingerprint `json:"policy_fingerprint"`
}
