package negotiate

import "errors"

var (
	// ErrConfig covers missing/unparseable environment variables (§6).
	ErrConfig = errors.New("negotiate: configuration error")

	// ErrIO covers read/write failures on the negotiation descriptors
	// other than would-block (§7: I/O errors).
	ErrIO = errors.New("negotiate: I/O error")

	// ErrProtocol covers MB size mismatches, a dispatcher referring to a
	// nonexistent node, and other structural violations (§7: protocol errors).
	ErrProtocol = errors.New("negotiate: protocol error")

	// ErrDirection is the sanity-check failure of §4.1.1: the declared
	// is_graph_in/is_graph_out does not match the side the MB arrived on.
	ErrDirection = errors.New("negotiate: declared direction does not match inferred edge direction")

	// ErrArity is returned by Allocate when in/out degree does not match
	// requires_channels/provides_channels (§4.1 Connection allocation).
	ErrArity = errors.New("negotiate: arity mismatch")

	// ErrFailed is returned by Negotiate when the session's state machine
	// reaches FAILED.
	ErrFailed = errors.New("negotiate: session failed")

	// ErrState is returned by Allocate when called out of order (before
	// negotiation has reached state END, or before self was contributed).
	ErrState = errors.New("negotiate: invalid session state")
)
