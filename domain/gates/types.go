package gates

// Gate identifies one stage of the rule-governance protocol
type Gate string

const (
	GatePlausibility Gate = "plausibility"
	GateRelevance    Gate = "relevance"
	GateTrust        Gate = "trust"
	GateSafety       Gate = "safety"
	GateExaggeration Gate = "exaggeration"
)

// Outcome is the result of evaluating one gate
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	// OutcomeFlagged marks a soft violation: the entry is not rejected but
	// its tier is shifted downward by the classifier.
	OutcomeFlagged Outcome = "flagged"
)

// Result is one gate's verdict. Score is set only for the scoring gates
// (relevance, source-trust); Reason is set whenever the outcome deviates
// from a clean pass.
type Result struct {
	Gate    Gate     `json:"gate"`
	Outcome Outcome  `json:"outcome"`
	Score   *float64 `json:"score,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Pass builds a passing result
func Pass(gate Gate) Result {
	return Result{Gate: gate, Outcome: OutcomePass}
}

// Fail builds a failing result with its reason
func Fail(gate Gate, reason string) Result {
	return Result{Gate: gate, Outcome: OutcomeFail, Reason: reason}
}

// Scored builds a scoring-gate result. Below-threshold scoring gates still
// carry OutcomeFail plus the numeric score.
func Scored(gate Gate, outcome Outcome, score float64, reason string) Result {
	s := score
	return Result{Gate: gate, Outcome: outcome, Score: &s, Reason: reason}
}

// Flagged builds a soft-violation result
func Flagged(gate Gate, reason string) Result {
	return Result{Gate: gate, Outcome: OutcomeFlagged, Reason: reason}
}

// ResultSet is the full five-gate verdict for one entry
type ResultSet struct {
	Plausibility Result `json:"plausibility"`
	Relevance    Result `json:"relevance"`
	Trust        Result `json:"trust"`
	Safety       Result `json:"safety"`
	Exaggeration Result `json:"exaggeration"`
}

// SafetyCritical reports whether the monotone override applies: a
// plausibility or safety failure forces the worst tier no matter what the
// tail probability or any other gate says.
func (rs ResultSet) SafetyCritical() bool {
	return rs.Plausibility.Outcome == OutcomeFail || rs.Safety.Outcome == OutcomeFail
}

// ExaggerationFlagged reports whether the soft down-shift applies
func (rs ResultSet) ExaggerationFlagged() bool {
	return rs.Exaggeration.Outcome == OutcomeFlagged
}

// All returns the results in protocol order
func (rs ResultSet) All() []Result {
	return []Result{rs.Plausibility, rs.Relevance, rs.Trust, rs.Safety, rs.Exaggeration}
}
