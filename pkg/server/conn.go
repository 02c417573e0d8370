package server

import (
	"context"
	"net"
	"time"

	"github.com/marmos91/lineserv/internal/logger"
	"github.com/marmos91/lineserv/pkg/protocol"
)

// readBufSize is the size of a single bounded read. The reactor revisits
// readiness, so one read per event is sufficient.
const readBufSize = 4096

// conn is one accepted client connection. All fields except nc are owned
// exclusively by the reactor loop; the reader goroutine only touches the
// socket and the events channel.
type conn struct {
	id      uint64
	nc      net.Conn
	framer  *protocol.LineFramer
	session *Session

	// logCtx carries conn_id/client/username/phase for log lines.
	logCtx *logger.LogContext

	// closed is set by the loop when the connection has been torn down,
	// so late events for this conn are ignored.
	closed bool
}

// logContext returns a context carrying the connection's current logging
// fields. Username and phase are refreshed from the session on every call.
func (c *conn) logContext() context.Context {
	lc := c.logCtx.WithUsername(c.session.Username()).WithPhase(c.session.Phase().String())
	return logger.WithContext(context.Background(), lc)
}

// readLoop performs bounded reads and forwards the bytes to the reactor as
// events. It runs in its own goroutine, one per connection, and exits when
// the socket errors or is closed by the loop. A zero-length read surfaces
// as an io.EOF event, which the loop treats as normal peer closure.
func (c *conn) readLoop(events chan<- event, idleTimeout time.Duration) {
	buf := make([]byte, readBufSize)
	for {
		if idleTimeout > 0 {
			if err := c.nc.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
				events <- event{kind: evClosed, c: c, err: err}
				return
			}
		}

		n, err := c.nc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			events <- event{kind: evData, c: c, data: data}
		}
		if err != nil {
			events <- event{kind: evClosed, c: c, err: err}
			return
		}
	}
}
