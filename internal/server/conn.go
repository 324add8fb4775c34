/*
Package server implements the per-connection state machine and the
accept loop: Reading a command from the wire, Dispatching it through
command.Parse and executor.Execute, Writing the reply, and looping
until the peer disconnects or a framing error forces a close.
*/
package server

import (
	"io"
	"net"

	"github.com/lineframe/respd/internal/command"
	"github.com/lineframe/respd/internal/executor"
	"github.com/lineframe/respd/internal/logging"
	"github.com/lineframe/respd/internal/resp"
	"github.com/lineframe/respd/internal/store"
)

// readChunk is the amount of fresh socket data pulled in per read
// while the buffer doesn't yet hold a complete value.
const readChunk = 4096

// Conn owns one client connection: the socket, its inbound byte
// buffer, and the client's display address. It has no exported
// mutable state beyond what's needed to run its own loop.
type Conn struct {
	nc     net.Conn
	addr   string
	buf    []byte
	store  *store.Store
	log    *logging.Logger
	limits resp.Limits
}

// NewConn wraps nc for a single handling loop against st, enforcing
// limits on parsed bulk strings and arrays.
func NewConn(nc net.Conn, st *store.Store, log *logging.Logger, limits resp.Limits) *Conn {
	return &Conn{
		nc:     nc,
		addr:   nc.RemoteAddr().String(),
		store:  st,
		log:    log,
		limits: limits,
	}
}

// Serve runs the Reading/Dispatching/Writing loop until the peer
// disconnects, a framing error closes the connection, or a write
// fails. It always closes the underlying socket before returning.
func (c *Conn) Serve() {
	defer c.nc.Close()

	for {
		v, n, err := resp.Parse(c.buf, c.limits)
		if err == resp.ErrIncomplete {
			if !c.fill() {
				return
			}
			continue
		}
		if err != nil {
			c.log.Warn("framing error from %s: %v", c.addr, err)
			c.nc.Write(resp.Errf("ERR Protocol error: %v", err).Serialize())
			return
		}

		c.buf = c.buf[n:]

		reply, shouldClose := c.dispatch(v)
		if _, werr := c.nc.Write(reply.Serialize()); werr != nil {
			c.log.Warn("write error to %s: %v", c.addr, werr)
			return
		}
		if shouldClose {
			return
		}
	}
}

// dispatch decodes v into a Command and executes it. A decode failure
// (bad arity, wrong argument types) yields an Error reply without
// closing the connection — only QUIT, a framing error, or a write
// failure ends the session.
func (c *Conn) dispatch(v resp.Value) (resp.Value, bool) {
	cmd, err := command.Parse(v)
	if err != nil {
		return resp.Errf("ERR %v", err), false
	}
	return executor.Execute(cmd, c.store)
}

// fill reads more bytes from the socket into c.buf. It reports false
// when the connection should close: a clean EOF with nothing left to
// parse, or any read error (including a truncated mid-command EOF,
// which io.Reader surfaces as io.EOF with zero bytes read here too —
// distinguished only by whether c.buf is already non-empty).
func (c *Conn) fill() bool {
	scratch := make([]byte, readChunk)
	n, err := c.nc.Read(scratch)
	if n > 0 {
		c.buf = append(c.buf, scratch[:n]...)
	}
	if err != nil {
		if err != io.EOF {
			c.log.Warn("read error from %s: %v", c.addr, err)
		}
		return false
	}
	if n == 0 {
		return false
	}
	return true
}
