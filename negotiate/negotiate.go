// Package negotiate implements the ring protocol of §4.1: a single
// Message Block circulates among every tool of a shell pipeline until
// every tool has discovered the full graph of tools and connections,
// at which point each tool allocates the real descriptors its edges
// require.
package negotiate

import (
	"fmt"
	"os"
)

// Negotiate runs one tool's full participation in the ring protocol:
// startup, the forward/compete/contribute loop until the MB reaches
// state END, and finally connection allocation. name, requires and
// provides are this tool's own declared identity (§3); negIn/negOut
// are the file descriptors the shell handed this tool for negotiation
// traffic, one per stdio side.
//
// On success it returns the real input and output connections this
// tool should use for its data-plane I/O, ordered to match the edge
// order the whole ring observed identically. On any error after the
// session is created, the session is left in state FAILED and the
// error is returned wrapped in ErrFailed; a failure to resolve
// is_graph_in/is_graph_out is returned as is (wrapping ErrConfig).
func Negotiate(name string, requires, provides int, negIn, negOut *os.File, broker Broker, opts Options) (ins, outs []*os.File, err error) {
	s, err := newSession(name, requires, provides, negIn, negOut, opts)
	if err != nil {
		return nil, nil, err
	}

	ins, outs, err = s.negotiate(broker)
	if err != nil {
		s.state = FAILED
		if s.Logger != nil {
			s.Logger.Error().Err(err).Str("name", name).Msg("negotiate: session failed")
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	return ins, outs, nil
}

func (s *Session) negotiate(broker Broker) (ins, outs []*os.File, err error) {
	events, err := s.startup()
	if err != nil {
		return nil, nil, err
	}
	if err := s.run(events); err != nil {
		return nil, nil, err
	}
	return s.Allocate(broker)
}
