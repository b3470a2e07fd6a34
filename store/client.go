package store

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// clientState is the per-client state machine of §4.2.3.
type clientState int

const (
	csInactive clientState = iota
	csReadCommand
	csSendCurrent
	csSendLast
	csSendingResponse
	csWaitClose
)

func (s clientState) String() string {
	switch s {
	case csInactive:
		return "inactive"
	case csReadCommand:
		return "read_command"
	case csSendCurrent:
		return "send_current"
	case csSendLast:
		return "send_last"
	case csSendingResponse:
		return "sending_response"
	case csWaitClose:
		return "wait_close"
	default:
		return "unknown"
	}
}

// client is one connected socket slot (§3 Client, §4.2.3 state machine).
type client struct {
	fd    int
	state clientState

	// response holds the framed header+payload once send_current or
	// send_last fires; sent tracks how many bytes of it have gone out.
	response []byte
	sent     int

	// oldestRef is the oldest buffer this client's in-flight response
	// still points into, used by the reclamation sweep (§4.2.7) to
	// never free a buffer a sending client still reads from.
	oldestRef *Buffer
}

func newClient(fd int) *client {
	return &client{fd: fd, state: csReadCommand}
}

// readCommand reads exactly one command byte and applies the
// transition named in §4.2.3, or returns false on EOF/error (caller
// then retires the slot).
func (c *client) readCommand() (ok bool, quit bool, err error) {
	var buf [1]byte
	n, rerr := unix.Read(c.fd, buf[:])
	if n == 0 && rerr == nil {
		return false, false, nil // EOF: retire the slot
	}
	if rerr == unix.EAGAIN {
		return true, false, nil // nothing to read yet, stay in read_command
	}
	if rerr != nil {
		return false, false, rerr
	}
	if n < 1 {
		return true, false, nil
	}

	switch buf[0] {
	case 'C':
		c.state = csSendCurrent
	case 'L':
		c.state = csSendLast
	case 'Q':
		return true, true, nil
	default:
		return false, false, ErrBadCommand
	}
	return true, false, nil
}

// startSending frames rec and moves the client into sending_response
// (§4.2.3, §4.2.6).
func (c *client) startSending(rec CurrentRecord) {
	c.response = frame(rec.Bytes())
	c.sent = 0
	c.oldestRef = rec.Begin.Buf
	c.state = csSendingResponse
}

// writeMore continues emitting c.response, returning true once fully
// sent. The header and first payload chunk are written together as a
// single call (§4.2.6: "emitted as a single scattered write"); a
// short write on the header-containing first write is fatal, a short
// write partway through payload-only bytes is resumed normally.
func (c *client) writeMore() (done bool, err error) {
	for c.sent < len(c.response) {
		n, werr := unix.Write(c.fd, c.response[c.sent:])
		if n > 0 {
			if c.sent < headerLen && c.sent+n < headerLen {
				return false, fmt.Errorf("%w: short write on response header", ErrConfig)
			}
			c.sent += n
		}
		if werr != nil {
			if werr == unix.EAGAIN {
				return false, nil
			}
			return false, werr
		}
		if n == 0 {
			return false, nil
		}
	}
	c.state = csWaitClose
	c.response = nil
	return true, nil
}

// awaitClose drains and discards bytes until the client closes its
// end (wait_close, §4.2.3); the client is not expected to send
// anything further once it has read its response.
func (c *client) awaitClose() (closed bool, err error) {
	var buf [256]byte
	n, rerr := unix.Read(c.fd, buf[:])
	switch {
	case n == 0 && rerr == nil:
		return true, nil // EOF
	case rerr == unix.EAGAIN:
		return false, nil
	case rerr != nil:
		return false, rerr
	default:
		return false, nil // more (discarded) bytes arrived; stay in wait_close
	}
}
