package negotiate

import (
	"fmt"
	"io"
	"os"

	"github.com/sgsh/sgsh/graph"
)

// ringEvent carries one decoded MB, or a terminal read error, from a
// reader goroutine back to the session's main loop.
type ringEvent struct {
	side graph.Side
	mb   *graph.MessageBlock
	err  error
}

// startReaders launches one goroutine per graph-aware negotiation
// descriptor (a tool at either end of a pipeline has only one), each
// continuously decoding MBs and delivering them on the returned
// channel. This is the readiness-wait the Design Notes ask for in
// place of the original's busy EAGAIN retry loop: os.File's Read
// already suspends the calling goroutine on the runtime's netpoller
// instead of spinning, so "polling both descriptors" falls out of
// running both reads concurrently and selecting on whichever finishes
// first (here: whichever send on evc is received first).
func (s *Session) startReaders() <-chan ringEvent {
	evc := make(chan ringEvent)
	n := 0
	if s.isGraphIn {
		n++
		go readSide(graph.SideInput, s.negIn, evc)
	}
	if s.isGraphOut {
		n++
		go readSide(graph.SideOutput, s.negOut, evc)
	}
	s.readerCount = n
	return evc
}

func readSide(side graph.Side, f *os.File, evc chan<- ringEvent) {
	for {
		mb, err := graph.ReadFrom(f)
		evc <- ringEvent{side: side, mb: mb, err: err}
		if err != nil {
			return
		}
	}
}

// graphAware reports whether side is one of this tool's negotiation-
// capable descriptors.
func (s *Session) graphAware(side graph.Side) bool {
	if side == graph.SideInput {
		return s.isGraphIn
	}
	return s.isGraphOut
}

// writeSideAfter picks the side to forward on next, having just
// received on deliveredOn. §4.1 Ring traversal says "opposite to the
// side it most recently received from" — that only makes sense for a
// tool graph-aware on both sides. A tool with a single graph-aware
// side (the two ends of a pipeline) has nowhere else to go, so it
// bounces the MB back the way it came, reusing that side's descriptor
// bidirectionally for the duration of the negotiation (§4.1: "the
// shell extension permits negotiation traffic in either direction on
// a normally one-way pipe").
func (s *Session) writeSideAfter(deliveredOn graph.Side) graph.Side {
	opposite := deliveredOn.Opposite()
	if s.graphAware(opposite) {
		return opposite
	}
	return deliveredOn
}

// startup implements §4.1's Startup rule, leaving s.chosen, s.self and
// s.nextWrite set so that run() can take over the ring loop.
func (s *Session) startup() (events <-chan ringEvent, err error) {
	s.state = CONTRIBUTING

	if s.isGraphOut && !s.isGraphIn {
		// no upstream peer: construct a fresh MB, name self initiator
		s.chosen = graph.New(s.pid)
		if err := s.contribute(graph.SideOutput); err != nil {
			return nil, err
		}
		s.nextWrite = graph.SideOutput
		return s.startReaders(), nil
	}

	events = s.startReaders()
	ev := <-events
	if ev.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, ev.err)
	}
	s.chosen = ev.mb
	if err := s.contribute(ev.side); err != nil {
		return nil, err
	}
	s.nextWrite = s.writeSideAfter(ev.side)
	return events, nil
}

// run drives the ring loop: write, read, compete, contribute, repeat,
// until the chosen MB reaches state END (§4.1 Ring traversal,
// Competition rule, Termination detection).
func (s *Session) run(events <-chan ringEvent) error {
	s.state = FORWARDING

	if err := s.forward(); err != nil {
		return err
	}
	if s.chosen.State == graph.END {
		s.state = COMPLETED
		return nil
	}

	for {
		ev := <-events
		if ev.err != nil {
			if ev.err == io.EOF && s.chosen.State == graph.END {
				s.state = COMPLETED
				return nil
			}
			return fmt.Errorf("%w: %v", ErrIO, ev.err)
		}

		switch compete(s.chosen, ev.mb) {
		case keepChosen:
			// do not forward this round; chosen keeps circulating
			// via whatever previous forward() already put in flight.
			continue
		case adoptFresh:
			s.chosen = ev.mb
			if err := s.contribute(ev.side); err != nil {
				return err
			}
		case sameRing:
			if ev.mb.SerialNo > s.chosen.SerialNo {
				s.chosen = ev.mb
			}
			if err := s.contribute(ev.side); err != nil {
				return err
			}
		}

		s.detectTermination()

		s.nextWrite = s.writeSideAfter(ev.side)
		if err := s.forward(); err != nil {
			return err
		}

		if s.chosen.State == graph.END {
			s.state = COMPLETED
			return nil
		}
	}
}

// detectTermination implements §4.1 Termination detection. Only the
// initiator runs it: the round counter advances each time the MB
// arrives back at the initiator (every event this tool's main loop
// handles, by definition, since this code only runs in the initiator's
// own process). If SerialNo did not change since the previous round,
// the initiator stamps the MB END and bumps SerialNo once more so the
// stamp itself is visible to the rest of the ring as it propagates.
func (s *Session) detectTermination() {
	if s.chosen.State != graph.NEGOTIATING || s.pid != s.chosen.InitiatorPid {
		return
	}

	if s.round > 0 && s.chosen.SerialNo == s.lastRoundSerial {
		s.chosen.State = graph.END
		s.chosen.SerialNo++
	}
	s.lastRoundSerial = s.chosen.SerialNo
	s.round++
}

// forward stamps the MB's origin as this hop and writes it out of
// s.nextWrite.
func (s *Session) forward() error {
	s.chosen.Origin = graph.Origin{Index: s.self, Side: s.nextWrite}

	f := s.negOut
	if s.nextWrite == graph.SideInput {
		f = s.negIn
	}
	if _, err := s.chosen.WriteTo(f); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if s.Logger != nil {
		s.Logger.Debug().
			Int("self", s.self).
			Str("side", s.nextWrite.String()).
			Uint64("serial_no", s.chosen.SerialNo).
			Str("state", s.chosen.State.String()).
			Msg("negotiate: forwarded message block")
	}
	return nil
}
