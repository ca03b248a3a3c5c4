// Package control hosts the per-session unix socket that lets later
// invocations steer the session already on screen instead of starting a
// second one.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyprseek/hyprseek/internal/util"
)

// readTimeout bounds how long a connection may sit without sending its
// command byte.
const readTimeout = 2 * time.Second

// Server hosts the control socket and forwards commands to the session.
type Server struct {
	logger     *util.Logger
	deliver    func(Command) error
	socketPath string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a control server delivering commands through the given
// callback. The callback runs on connection goroutines and must be safe for
// concurrent use.
func NewServer(logger *util.Logger, deliver func(Command) error) (*Server, error) {
	path, err := DefaultSocketPath()
	if err != nil {
		return nil, err
	}
	return NewServerAt(path, logger, deliver), nil
}

// NewServerAt creates a control server bound to an explicit socket path.
func NewServerAt(path string, logger *util.Logger, deliver func(Command) error) *Server {
	return &Server{
		logger:     logger,
		deliver:    deliver,
		socketPath: path,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Serve listens on the control socket until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	s.logger.Debugf("control socket listening on %s", s.socketPath)
	defer s.cleanup()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			s.logger.Errorf("control accept error: %v", err)
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod control socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("remove control socket: %v", err)
	}
}

// handle serves one connection: one command byte in, one response byte out.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(readTimeout))

	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		s.logger.Warnf("control read: %v", err)
		return
	}
	cmd := Command(buf[0])
	switch cmd {
	case CmdPing:
		s.respond(conn, RespPong)
	case CmdCycleForward, CmdCycleBackward, CmdRelease:
		if err := s.deliver(cmd); err != nil {
			s.logger.Warnf("control deliver %q: %v", byte(cmd), err)
			s.respond(conn, RespError)
			return
		}
		s.respond(conn, RespOK)
	default:
		s.logger.Warnf("control: unknown command %q", byte(cmd))
		s.respond(conn, RespError)
	}
}

func (s *Server) respond(conn net.Conn, r Response) {
	if _, err := conn.Write([]byte{byte(r)}); err != nil {
		s.logger.Warnf("control write: %v", err)
	}
}
