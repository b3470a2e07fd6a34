package negotiate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgsh/sgsh/graph"
)

// toolResult collects one simulated tool's outcome for assertion after
// every goroutine in a scenario has finished.
type toolResult struct {
	name      string
	ins, outs int
	err       error
}

// TestScenarioE_ThreeToolConvergence simulates a three-tool linear
// pipeline (§8 Scenario E): a source that only writes (graph_out_only),
// a filter that reads and writes, and a sink that only reads
// (graph_in_only). All three must converge on the same graph and
// terminate, and the negotiated edges must be leftmost->middle and
// middle->rightmost.
func TestScenarioE_ThreeToolConvergence(t *testing.T) {
	leftMiddleA, leftMiddleB := socketpair(t)   // leftmost.negOut <-> middle.negIn
	middleRightA, middleRightB := socketpair(t) // middle.negOut <-> rightmost.negIn

	broker := NewPipeBroker()
	var wg sync.WaitGroup
	results := make(chan toolResult, 3)

	leftPid, midPid, rightPid := 42, 17, 30

	wg.Add(3)
	go func() {
		defer wg.Done()
		ins, outs, err := Negotiate("leftmost", 0, 1, nil, leftMiddleA, broker,
			Options{Pid: leftPid, IsGraphIn: boolPtr(false), IsGraphOut: boolPtr(true)})
		results <- toolResult{name: "leftmost", ins: len(ins), outs: len(outs), err: err}
	}()
	go func() {
		defer wg.Done()
		ins, outs, err := Negotiate("middle", 1, 1, leftMiddleB, middleRightA, broker,
			Options{Pid: midPid, IsGraphIn: boolPtr(true), IsGraphOut: boolPtr(true)})
		results <- toolResult{name: "middle", ins: len(ins), outs: len(outs), err: err}
	}()
	go func() {
		defer wg.Done()
		ins, outs, err := Negotiate("rightmost", 1, 0, middleRightB, nil, broker,
			Options{Pid: rightPid, IsGraphIn: boolPtr(true), IsGraphOut: boolPtr(false)})
		results <- toolResult{name: "rightmost", ins: len(ins), outs: len(outs), err: err}
	}()

	wg.Wait()
	close(results)

	byName := map[string]toolResult{}
	for r := range results {
		byName[r.name] = r
	}

	require.NoError(t, byName["leftmost"].err)
	require.NoError(t, byName["middle"].err)
	require.NoError(t, byName["rightmost"].err)

	require.Equal(t, 0, byName["leftmost"].ins)
	require.Equal(t, 1, byName["leftmost"].outs)
	require.Equal(t, 1, byName["middle"].ins)
	require.Equal(t, 1, byName["middle"].outs)
	require.Equal(t, 1, byName["rightmost"].ins)
	require.Equal(t, 0, byName["rightmost"].outs)

	require.Len(t, broker.conns, 2, "exactly the two pipeline edges should have been materialized")
}

// TestCompeteLowestInitiatorPidWins exercises the Competition rule in
// isolation (§8 Scenario F): of two MBs with different initiators, the
// lower pid always wins regardless of which is "fresh".
func TestCompeteLowestInitiatorPidWins(t *testing.T) {
	low := graph.New(5)
	high := graph.New(9)

	require.Equal(t, adoptFresh, compete(high, low))
	require.Equal(t, keepChosen, compete(low, high))
}

// TestCompeteEqualInitiatorIsSameRing covers the equal-initiator case:
// compete reports sameRing whatever the serial numbers; choosing the
// higher serial_no is left to the caller (run).
func TestCompeteEqualInitiatorIsSameRing(t *testing.T) {
	chosen := graph.New(5)
	chosen.SerialNo = 3
	fresh := graph.New(5)
	fresh.SerialNo = 7

	require.Equal(t, sameRing, compete(chosen, fresh))
}

func boolPtr(b bool) *bool { return &b }
