package store

import "errors"

var (
	// ErrConfig covers malformed CLI flags and environment (§6); the
	// server also wraps its socket, epoll, accept and response-header
	// write failures in it.
	ErrConfig = errors.New("store: configuration error")

	// ErrTimeWindowUnsupported is returned by FromFlags when -w is
	// given: the store only ever implements record-window retention
	// (§4.2 Open Question, resolved).
	ErrTimeWindowUnsupported = errors.New("store: time-window mode is not implemented")

	// ErrNoRecord names the condition of no complete record being
	// buffered yet. No function in this package returns it: a 'C'
	// client in that condition waits in send_current instead.
	ErrNoRecord = errors.New("store: no record available yet")

	// ErrClosed names use of a client or server that has already shut
	// down. No function in this package returns it.
	ErrClosed = errors.New("store: closed")

	// ErrBadCommand covers an unrecognized single-byte client command (§6).
	ErrBadCommand = errors.New("store: unrecognized command byte")
)
