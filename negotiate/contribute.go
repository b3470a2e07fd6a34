package negotiate

import (
	"fmt"

	"github.com/sgsh/sgsh/graph"
)

// contribute adds self to s.chosen if not already present (by pid),
// then adds the edge to the MB's origin — the endpoints chosen per the
// direction-inference rule of §4.1.1. It bumps SerialNo on any
// structural change (graph.MessageBlock does this for us).
func (s *Session) contribute(deliveredOn graph.Side) error {
	if idx, ok := s.chosen.HasNode(s.pid); ok {
		s.self = idx
	} else {
		s.self = s.chosen.AddNode(graph.Node{
			Pid:        s.pid,
			Name:       s.name,
			Requires:   s.requires,
			Provides:   s.provides,
			IsGraphIn:  s.isGraphIn,
			IsGraphOut: s.isGraphOut,
		})
	}

	origin := s.chosen.Origin
	if origin.Index == -1 {
		// The initiator's freshly created MB: nothing to link to yet.
		return nil
	}
	if !s.chosen.ValidIndex(origin.Index) {
		return fmt.Errorf("%w: origin index %d", graph.ErrOrigin, origin.Index)
	}
	if origin.Index == s.self {
		// s.chosen still carries the origin this tool stamped on it in
		// forward(): run() kept its own copy over an equal-serial
		// arrival, so there is no new edge to record
		return nil
	}

	// Direction is inferred from the side the MB was delivered on. An
	// input-side delivery means the origin fed us over our upstream
	// connection, so the edge is origin -> self; an output-side
	// delivery means the MB bounced back from whatever is downstream
	// of our output, so the edge is self -> origin. (This is the
	// self-consistent reading: it is the only one under which
	// Connection allocation's "incoming edges satisfy requires_channels,
	// outgoing edges satisfy provides_channels" rule lines up with a
	// tool's own is_graph_in/is_graph_out declarations, and it is the
	// one that reproduces the worked three-tool example in §8.)
	var edge graph.Edge
	switch deliveredOn {
	case graph.SideInput:
		if !s.isGraphIn {
			return fmt.Errorf("%w: MB arrived on input but is_graph_in=false", ErrDirection)
		}
		edge = graph.Edge{From: origin.Index, To: s.self}
	case graph.SideOutput:
		if !s.isGraphOut {
			return fmt.Errorf("%w: MB arrived on output but is_graph_out=false", ErrDirection)
		}
		edge = graph.Edge{From: s.self, To: origin.Index}
	}

	return s.chosen.AddEdge(edge)
}
