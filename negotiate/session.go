package negotiate

import (
	"fmt"
	"os"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/sgsh/sgsh/graph"
)

// toolState is the per-tool state machine of §4.1.2.
type toolState byte

const (
	ENTERED toolState = iota
	CONTRIBUTING
	FORWARDING
	COMPLETED
	FAILED
)

func (s toolState) String() string {
	switch s {
	case ENTERED:
		return "ENTERED"
	case CONTRIBUTING:
		return "CONTRIBUTING"
	case FORWARDING:
		return "FORWARDING"
	case COMPLETED:
		return "COMPLETED"
	case FAILED:
		return "FAILED"
	default:
		return fmt.Sprintf("toolState(%d)", byte(s))
	}
}

// Session bundles the state a single tool's negotiation needs: the
// chosen MB, this tool's own node index once known, and which side the
// MB is next written to. This is the one owned object the Design Notes
// ask for in place of the C original's three process-wide globals
// (chosen MB, self node, dispatcher).
type Session struct {
	*zerolog.Logger

	name     string
	requires int
	provides int
	pid      int

	negIn  *os.File // the shell-assigned input-side fd; negotiation traffic is read and written on it
	negOut *os.File // the shell-assigned output-side fd; negotiation traffic is read and written on it

	isGraphIn  bool
	isGraphOut bool

	chosen    *graph.MessageBlock
	self      int        // index of self in chosen.Nodes; -1 until contributed
	nextWrite graph.Side // side the MB is next written to

	round           int    // negotiation_round counter (§4.1 Termination detection)
	lastRoundSerial uint64 // chosen.SerialNo observed at the previous round
	readerCount     int    // number of graph-aware sides startReaders() spawned

	state toolState

	// KV is a generic, thread-safe key/value store for caller-attached
	// metadata (e.g. a supervising shell tagging a session for
	// diagnostics). Carried over from the teacher's pipe.Pipe.KV; the
	// negotiation protocol itself never reads or writes it.
	KV *xsync.MapOf[string, any]
}

// newSession allocates a Session for a tool with the given declared
// name and arities, resolving is_graph_in/is_graph_out per opts.
func newSession(name string, requires, provides int, negIn, negOut *os.File, opts Options) (*Session, error) {
	isGraphIn, isGraphOut, err := opts.resolveDirections()
	if err != nil {
		return nil, err
	}

	return &Session{
		Logger:     opts.logger(),
		name:       name,
		requires:   requires,
		provides:   provides,
		pid:        opts.pid(),
		negIn:      negIn,
		negOut:     negOut,
		isGraphIn:  isGraphIn,
		isGraphOut: isGraphOut,
		self:       -1,
		state:      ENTERED,
		KV:         xsync.NewMapOf[any](),
	}, nil
}

// State reports the tool's current position in the §4.1.2 state machine.
func (s *Session) State() string {
	return s.state.String()
}
