package store

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newTestServer wires a Server to a real pipe for standard input (so
// the test can write records without touching the process's own fd 0)
// and a real Unix-domain socket for the client surface, then runs the
// event loop in the background.
func newTestServer(t *testing.T, cfg Config) (stdin *os.File, sockPath string, stop func()) {
	t.Helper()

	dir := t.TempDir()
	cfg.SocketPath = filepath.Join(dir, "sgsh-store.sock")

	pr, pw, err := os.Pipe()
	require.NoError(t, err)

	srv, err := newServer(cfg, DefaultOptions, int(pr.Fd()))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Run()
	}()

	stop = func() {
		unix.Unlink(cfg.SocketPath)
		pw.Close()
		pr.Close()
		srv.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
	return pw, cfg.SocketPath, stop
}

func TestServerEndToEnd_SeparatorLatestWins(t *testing.T) {
	stdin, sockPath, stop := newTestServer(t, Config{
		Mode:       modeSeparator,
		Separator:  '\n',
		RBegin:     0,
		REnd:       1,
		MaxClients: 64,
	})
	defer stop()

	_, err := stdin.Write([]byte("a\nbb\nccc\n"))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", sockPath)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("C"))
	require.NoError(t, err)

	buf := make([]byte, headerLen+3)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "0000000003ccc", string(buf))
}

func TestServerQuitUnlinksSocket(t *testing.T) {
	_, sockPath, stop := newTestServer(t, Config{
		Mode:       modeSeparator,
		Separator:  '\n',
		MaxClients: 64,
	})
	defer stop()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", sockPath)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)

	_, err = conn.Write([]byte("Q"))
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(sockPath)
		return os.IsNotExist(statErr)
	}, time.Second, 10*time.Millisecond)
}
