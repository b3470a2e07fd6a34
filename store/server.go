// Package store implements the single-value/record-window data store
// (§4.2): a single-threaded, non-blocking event loop that ingests a
// record stream on standard input and serves the current response
// window to concurrent local-socket clients.
package store

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/sgsh/sgsh/json"
)

// Server runs the event loop of §4.2.2 on one Config.
type Server struct {
	*zerolog.Logger

	cfg     Config
	queue   *BufferQueue
	current CurrentRecord

	epfd     int
	stdinFd  int
	stdinEOF bool
	listenFd int

	clients map[int]*client

	// Stats is a concurrent counter map an out-of-scope monitoring
	// façade can poll without perturbing the event loop (§B domain stack).
	Stats *xsync.MapOf[string, uint64]

	done   bool
	exitCd int
}

// NewServer creates the listening socket (unlinking any stale path
// first, §6) and the epoll instance, reading records from standard
// input, but does not yet run the loop.
func NewServer(cfg Config, opts Options) (*Server, error) {
	return newServer(cfg, opts, unix.Stdin)
}

// newServer is NewServer with the input descriptor overridable, so
// tests can feed a pipe in place of the real standard input without
// touching the process-wide fd 0.
func newServer(cfg Config, opts Options, stdinFd int) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	_ = unix.Unlink(cfg.SocketPath)

	lfd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %v", ErrConfig, err)
	}
	addr := &unix.SockaddrUnix{Name: cfg.SocketPath}
	if err := unix.Bind(lfd, addr); err != nil {
		return nil, fmt.Errorf("%w: bind %s: %v", ErrConfig, cfg.SocketPath, err)
	}
	if err := unix.Listen(lfd, cfg.MaxClients); err != nil {
		return nil, fmt.Errorf("%w: listen: %v", ErrConfig, err)
	}
	if err := unix.SetNonblock(lfd, true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if err := unix.SetNonblock(stdinFd, true); err != nil {
		return nil, fmt.Errorf("%w: stdin: %v", ErrConfig, err)
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("%w: epoll_create1: %v", ErrConfig, err)
	}

	s := &Server{
		Logger:   opts.logger(),
		cfg:      cfg,
		queue:    newBufferQueue(cfg),
		epfd:     epfd,
		stdinFd:  stdinFd,
		listenFd: lfd,
		clients:  make(map[int]*client),
		Stats:    xsync.NewMapOf[uint64](),
	}

	if err := s.epollAdd(s.stdinFd); err != nil {
		return nil, err
	}
	if err := s.epollAdd(s.listenFd); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) epollAdd(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("%w: epoll_ctl add %d: %v", ErrConfig, fd, err)
	}
	return nil
}

func (s *Server) epollDel(fd int) {
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Run drives the event loop until a client sends 'Q' or an
// unrecoverable error occurs, returning the process exit code named
// by §6.
func (s *Server) Run() (exitCode int, err error) {
	events := make([]unix.EpollEvent, 1+s.cfg.MaxClients)
	for !s.done {
		n, werr := unix.EpollWait(s.epfd, events, -1)
		if werr != nil {
			if werr == unix.EINTR {
				continue
			}
			return 3, fmt.Errorf("%w: epoll_wait: %v", ErrConfig, werr)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			switch {
			case fd == s.stdinFd:
				s.handleStdin()
			case fd == s.listenFd:
				if err := s.handleAccept(); err != nil {
					return 5, err
				}
			default:
				s.handleClient(fd)
			}
		}
	}
	return s.exitCd, nil
}

// handleStdin implements event-loop step 1 (§4.2.2).
func (s *Server) handleStdin() {
	if s.stdinEOF {
		return
	}
	buf := make([]byte, bufferSize)
	n, err := unix.Read(s.stdinFd, buf)
	switch {
	case n > 0:
		s.queue.Append(buf[:n])
		s.recompute()
		s.reclaim()
		s.Stats.Store("bytes_read", s.queue.byteCount)
		s.Stats.Store("record_count", s.queue.recordCount)
		s.retryWaitingClients()
	case err == unix.EAGAIN:
		// nothing ready
	case n == 0 && err == nil:
		s.stdinEOF = true
		s.epollDel(s.stdinFd)
		s.Logger.Debug().Msg("store: stdin EOF, releasing send_last clients")
		s.retryWaitingClients()
	}
}

func (s *Server) recompute() {
	s.current = s.queue.Locate(s.cfg.RBegin, s.cfg.REnd)
}

// reclaim frees buffers before the current record's start, unless a
// sending client still references something older (§4.2.7).
func (s *Server) reclaim() {
	keep := s.current.Begin.Buf
	for _, c := range s.clients {
		if c.state == csSendingResponse && c.oldestRef != nil {
			if keep == nil || c.oldestRef.seq < keep.seq {
				keep = c.oldestRef
			}
		}
	}
	s.queue.Reclaim(keep)
}

func (s *Server) handleAccept() error {
	for {
		fd, _, err := unix.Accept(s.listenFd)
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return fmt.Errorf("%w: accept: %v", ErrConfig, err)
		}
		if len(s.clients) >= s.cfg.MaxClients {
			unix.Close(fd)
			return fmt.Errorf("%w: all %d client slots are taken", ErrConfig, s.cfg.MaxClients)
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			continue
		}
		if err := s.epollAdd(fd); err != nil {
			unix.Close(fd)
			continue
		}
		s.clients[fd] = newClient(fd)
	}
}

// handleClient implements event-loop steps 2-3 for one client fd,
// following the state machine of §4.2.3.
func (s *Server) handleClient(fd int) {
	c, ok := s.clients[fd]
	if !ok {
		return
	}

	switch c.state {
	case csReadCommand:
		ok, quit, err := c.readCommand()
		if err != nil || !ok {
			s.retire(c, err)
			return
		}
		if quit {
			s.quit()
			return
		}
		s.tryStartSending(c)

	case csSendCurrent, csSendLast:
		s.tryStartSending(c)

	case csSendingResponse:
		done, err := c.writeMore()
		if err != nil {
			s.retire(c, err)
			return
		}
		if done {
			s.reclaim()
		}

	case csWaitClose:
		closed, err := c.awaitClose()
		if err != nil {
			s.retire(c, err)
			return
		}
		if closed {
			s.retire(c, nil)
		}
	}
}

// tryStartSending moves a client from send_current/send_last into
// sending_response once its trigger condition holds, and emits the
// framed first write right away.
func (s *Server) tryStartSending(c *client) {
	switch c.state {
	case csSendCurrent:
		if s.current.Have {
			c.startSending(s.current)
		}
	case csSendLast:
		if s.stdinEOF && s.current.Have {
			c.startSending(s.current)
		}
	}
	if c.state != csSendingResponse {
		return
	}
	// client fds are watched for readability only, so no epoll event
	// would otherwise arrive to start the response
	done, err := c.writeMore()
	if err != nil {
		s.retire(c, err)
		return
	}
	if done {
		s.reclaim()
	}
}

// retryWaitingClients re-evaluates every client parked in send_current
// or send_last after the current record changes (new data, or EOF
// making send_last's trigger hold). The listening epoll registration
// is level-triggered with no more bytes to read on these clients' fds
// once their command byte is consumed, so the event loop itself is the
// only thing that will ever re-check their trigger condition.
func (s *Server) retryWaitingClients() {
	for _, c := range s.clients {
		if c.state == csSendCurrent || c.state == csSendLast {
			s.tryStartSending(c)
		}
	}
}

func (s *Server) retire(c *client, err error) {
	if err != nil {
		s.Logger.Debug().Err(err).Int("fd", c.fd).Msg("store: client retired on error")
	}
	s.epollDel(c.fd)
	unix.Close(c.fd)
	delete(s.clients, c.fd)
	s.reclaim()
}

// quit implements the 'Q' command (§4.2.3, property 11): unlink the
// socket and stop the loop with exit code 0 before servicing anyone else.
func (s *Server) quit() {
	_ = unix.Unlink(s.cfg.SocketPath)
	s.done = true
	s.exitCd = 0
}

// Close releases the server's own descriptors (listening socket,
// epoll instance); it does not unlink the socket path, which is only
// done on the 'Q' command or by the caller on a clean shutdown.
func (s *Server) Close() error {
	var errs []error
	for fd, c := range s.clients {
		if err := unix.Close(fd); err != nil {
			errs = append(errs, err)
		}
		delete(s.clients, fd)
		_ = c
	}
	if err := unix.Close(s.listenFd); err != nil {
		errs = append(errs, err)
	}
	if err := unix.Close(s.epfd); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StatsJSON renders Stats as a JSON object (§B domain stack). The
// sgsh-store command has no flag that prints it.
func (s *Server) StatsJSON(dst []byte) []byte {
	dst = append(dst, '{')
	first := true
	s.Stats.Range(func(k string, v uint64) bool {
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = json.String(dst, k)
		dst = append(dst, ':')
		dst = json.U64(dst, v)
		return true
	})
	return append(dst, '}')
}
