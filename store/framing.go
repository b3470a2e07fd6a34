package store

import "fmt"

// headerLen is the width of the fixed decimal content-length header
// every response begins with (§4.2.6).
const headerLen = 10

// frame prepends payload with its 10-digit zero-padded length header,
// so the whole thing can be handed to a single write call.
func frame(payload []byte) []byte {
	out := make([]byte, 0, headerLen+len(payload))
	out = append(out, []byte(fmt.Sprintf("%0*d", headerLen, len(payload)))...)
	out = append(out, payload...)
	return out
}
