package negotiate

import (
	"fmt"
	"os"
	"sync"

	"github.com/sgsh/sgsh/graph"
)

// Broker materializes one real OS connection per edge of the final
// graph. A single process hosts exactly one Broker instance shared by
// every simulated tool (see negotiate_test.go). PipeBroker, below, is
// the only implementation in this package; none passes descriptors
// between separate processes.
type Broker interface {
	// Open returns the read end and write end of edge e. Open may be
	// called once from each of the edge's two endpoints (From and To);
	// both calls must return descriptors for the same underlying
	// connection. Either return value may be nil if the caller only
	// needs the other end (From never uses the read end, To never
	// uses the write end).
	Open(e graph.Edge) (r, w *os.File, err error)
}

// PipeBroker is the in-process Broker used when every tool in the
// pipeline is itself a goroutine of the same process (as in this
// package's tests): it hands out the two ends of a single os.Pipe per
// edge, the first time either endpoint asks for it.
type PipeBroker struct {
	mu    sync.Mutex
	conns map[graph.Edge]pipeConn
}

type pipeConn struct {
	r, w *os.File
}

// NewPipeBroker returns an empty PipeBroker ready to use.
func NewPipeBroker() *PipeBroker {
	return &PipeBroker{conns: make(map[graph.Edge]pipeConn)}
}

func (b *PipeBroker) Open(e graph.Edge) (r, w *os.File, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.conns[e]; ok {
		return c.r, c.w, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	b.conns[e] = pipeConn{r: pr, w: pw}
	return pr, pw, nil
}

// Allocate implements §4.1 Connection allocation. It must only be
// called once s.chosen.State == graph.END: it first checks this
// tool's arity (the number of edges it ended up with on each side must
// match requires_channels/provides_channels), then asks broker to
// materialize each of those edges into a real descriptor. ins and outs
// are ordered by edge index within the MB, which every tool in the
// ring observes identically, so two endpoints of the same edge agree
// on which slot it occupies without further coordination.
func (s *Session) Allocate(broker Broker) (ins, outs []*os.File, err error) {
	if s.chosen == nil || s.chosen.State != graph.END {
		return nil, nil, fmt.Errorf("%w: negotiation has not reached state END", ErrState)
	}
	if s.self < 0 {
		return nil, nil, fmt.Errorf("%w: self node was never contributed", ErrState)
	}

	inEdges := s.chosen.InEdges(s.self)
	outEdges := s.chosen.OutEdges(s.self)

	if len(inEdges) != s.requires {
		return nil, nil, fmt.Errorf("%w: node %q requires %d input channels, negotiated %d",
			ErrArity, s.name, s.requires, len(inEdges))
	}
	if len(outEdges) != s.provides {
		return nil, nil, fmt.Errorf("%w: node %q provides %d output channels, negotiated %d",
			ErrArity, s.name, s.provides, len(outEdges))
	}

	ins = make([]*os.File, 0, len(inEdges))
	for _, idx := range inEdges {
		r, _, err := broker.Open(s.chosen.Edges[idx])
		if err != nil {
			return nil, nil, err
		}
		ins = append(ins, r)
	}

	outs = make([]*os.File, 0, len(outEdges))
	for _, idx := range outEdges {
		_, w, err := broker.Open(s.chosen.Edges[idx])
		if err != nil {
			return nil, nil, err
		}
		outs = append(outs, w)
	}

	if s.Logger != nil {
		s.Logger.Info().
			Str("name", s.name).
			Int("ins", len(ins)).
			Int("outs", len(outs)).
			Msg("negotiate: allocated connections")
	}

	return ins, outs, nil
}
