// Package server exposes the counter over a unix stream socket.
//
// Ownership boundary:
// - socket bind/accept lifecycle
// - per-connection command loop
// - counter mutation on behalf of clients
//
// The serving process owns the socket file; it is created on Start and
// released when serving stops.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/hvalle/counterd/internal/counter"
)

// Server answers newline-delimited counter commands on one unix socket.
type Server struct {
	socketPath string
	counter    *counter.Counter
	terminate  func()

	ln net.Listener

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	clientCount atomic.Int64
}

// New constructs a server bound to one socket path and one shared counter.
// terminate is invoked once a get_counter_and_terminate response has been
// fully flushed; the owner is expected to stop the whole process.
func New(socketPath string, ctr *counter.Counter, terminate func()) *Server {
	if terminate == nil {
		terminate = func() {}
	}
	return &Server{
		socketPath: socketPath,
		counter:    ctr,
		terminate:  terminate,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start binds the unix listening socket. A stale or otherwise unusable path
// is a misconfiguration: the error is returned as-is for the caller to treat
// as fatal, with no retry and no unlink of whatever occupies the path.
func (s *Server) Start() error {
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("server: bind socket %q: %w", s.socketPath, err)
	}
	s.ln = ln
	log.Info().Msgf("server.Start listening socket=%q", s.socketPath)
	return nil
}

// Serve accepts connections until ctx is cancelled. Must be preceded by a
// successful Start. The socket file is removed when serving stops.
func (s *Server) Serve(ctx context.Context) error {
	defer s.cleanup()
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
		s.closeAllConns()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(conn)
	}
}

// ClientCount reports currently connected clients.
func (s *Server) ClientCount() int64 {
	return s.clientCount.Load()
}

// cleanup releases the listener and the socket's filesystem entry. The net
// package unlinks the path on Close for sockets it bound; the explicit
// remove also covers the path when Close errored out.
func (s *Server) cleanup() {
	_ = s.ln.Close()
	if _, err := os.Stat(s.socketPath); err == nil {
		_ = os.Remove(s.socketPath)
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
