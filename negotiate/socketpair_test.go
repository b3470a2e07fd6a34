package negotiate

import (
	"os"
	"syscall"
	"testing"
)

// socketpair returns the two ends of a connected, bidirectional
// AF_UNIX stream socket, wrapped as *os.File. Negotiation traffic can
// flow in either direction over a single descriptor (§4.1: "the shell
// extension permits negotiation traffic in either direction on a
// normally one-way pipe"), which a plain os.Pipe cannot simulate since
// each end of a pipe is unidirectional; a real shell would instead
// arrange this via its own fd plumbing.
func socketpair(t *testing.T) (a, b *os.File) {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return os.NewFile(uintptr(fds[0]), "sockA"), os.NewFile(uintptr(fds[1]), "sockB")
}
