package governance

import (
	"fmt"

	"gotier/domain/gates"
)

// exceptionWindow is how many characters around a flagged phrase an
// exception may sit and still excuse it.
const exceptionWindow = 50

// exaggerationGate flags absolute and superlative claim language. A match is
// a soft violation: the classifier shifts the tier down one band but the
// entry is not rejected. Exceptions only excuse a match when they appear
// near it, so an unrelated disclaimer elsewhere in the claim cannot.
func (e *Engine) exaggerationGate(in Input) gates.Result {
	for _, p := range e.exaggeration {
		for _, loc := range p.re.FindAllStringIndex(in.Claim, -1) {
			if exceptionNearby(in.Claim, loc, p) {
				continue
			}
			return gates.Flagged(gates.GateExaggeration, fmt.Sprintf("claim matches exaggeration pattern %s", p.id))
		}
	}
	return gates.Pass(gates.GateExaggeration)
}

func exceptionNearby(claim string, loc []int, p compiledExaggeration) bool {
	lo := loc[0] - exceptionWindow
	if lo < 0 {
		lo = 0
	}
	hi := loc[1] + exceptionWindow
	if hi > len(claim) {
		hi = len(claim)
	}
	window := claim[lo:hi]

	for _, exc := range p.exceptions {
		if exc.MatchString(window) {
			return true
		}
	}
	return false
}
