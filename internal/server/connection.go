package server

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hvalle/counterd/internal/observability"
	"github.com/hvalle/counterd/internal/protocol"
)

// connection carries per-client state across command/response cycles.
type connection struct {
	conn net.Conn
	buf  []byte

	// terminateAfterFlush marks the connection whose next flushed response
	// must stop the whole process.
	terminateAfterFlush bool
}

// handleConn runs one connection's command loop: read at most one command,
// dispatch, write the response, repeat. Each read reuses the fixed-ceiling
// buffer; a command is never reassembled across reads and pipelined input
// past the first newline is dropped.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	observability.RecordConnectionOpened()
	active := s.clientCount.Add(1)
	log.Info().Msgf("server.handleConn client connected active_clients=%d", active)
	defer func() {
		observability.RecordConnectionClosed()
		remaining := s.clientCount.Add(-1)
		log.Info().Msgf("server.handleConn client disconnected active_clients=%d", remaining)
	}()

	c := &connection{
		conn: conn,
		buf:  make([]byte, protocol.ReadBufferLen),
	}

	for {
		n, err := c.conn.Read(c.buf)
		if err != nil {
			// A closed peer ends the connection silently; anything else is
			// logged and ends only this connection.
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warn().Msgf("server.handleConn read err=%v", err)
			}
			return
		}
		if n == 0 {
			return
		}

		resp := s.dispatch(c, protocol.ExtractCommand(c.buf[:n]))

		if _, err := c.conn.Write([]byte(resp)); err != nil {
			log.Warn().Msgf("server.handleConn write err=%v", err)
			return
		}

		if c.terminateAfterFlush {
			// The response is flushed to the peer's socket buffer. Release
			// the connection first so the peer sees EOF, then stop the
			// process.
			_ = c.conn.Close()
			s.terminate()
			return
		}
	}
}

// dispatch routes one command line and produces the response to flush.
func (s *Server) dispatch(c *connection, cmd string) string {
	switch {
	case cmd == protocol.CmdGetCounter:
		observability.RecordCommand("get_counter")
		log.Info().Msg("server.dispatch returning counter to client")
		return protocol.FormatCounter(s.counter.Value())

	case cmd == protocol.CmdGetCounterAndTerminate:
		observability.RecordCommand("get_counter_and_terminate")
		log.Info().Msg("server.dispatch returning counter to client and terminating the process")
		c.terminateAfterFlush = true
		return protocol.FormatCounter(s.counter.Value())

	case strings.HasPrefix(cmd, protocol.SetCounterPrefix):
		observability.RecordCommand("set_counter")
		next := protocol.ParseLeadingInt(cmd[len(protocol.SetCounterPrefix):])
		log.Info().Msgf("server.dispatch setting the counter to %d", next)
		prev := s.counter.Set(next)
		observability.RecordCounterValue(next)
		return protocol.FormatPrevious(prev)

	default:
		observability.RecordCommand("invalid")
		log.Warn().Msgf("server.dispatch unknown message %q from client", cmd)
		return protocol.InvalidCommandResponse
	}
}
