package negotiate

import "github.com/sgsh/sgsh/graph"

// competeResult describes the outcome of comparing a freshly read MB
// against the one currently held (§4.1 Competition rule).
type competeResult int

const (
	keepChosen competeResult = iota // fresh discarded; chosen keeps circulating next round
	adoptFresh                      // chosen discarded; adopt fresh and re-contribute
	sameRing                        // same MB identity returning; keep the larger serial_no
)

// compete implements the lowest-initiator-pid-wins rule: it never
// mutates either argument, leaving the caller to decide what to do
// with chosen/fresh based on the verdict.
func compete(chosen, fresh *graph.MessageBlock) competeResult {
	switch {
	case fresh.InitiatorPid < chosen.InitiatorPid:
		return adoptFresh
	case fresh.InitiatorPid > chosen.InitiatorPid:
		return keepChosen
	default:
		return sameRing
	}
}
