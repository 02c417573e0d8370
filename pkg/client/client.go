// Package client implements the lineserv protocol from the connecting side:
// dialing, the login handshake, and sending validated commands. The
// interactive terminal session in this package is a thin prompt loop on top
// of the Client type, which is usable programmatically on its own.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/marmos91/lineserv/pkg/protocol"
)

// ErrServerClosed indicates the server closed the connection, either in
// response to quit, a protocol violation, or the strict login policy.
var ErrServerClosed = errors.New("server closed the connection")

// Client is a single connection to a lineserv server.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to a lineserv server at addr (host:port).
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the server address the client is connected to.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// ReadLine reads one newline-terminated message from the server. A closed
// connection surfaces as ErrServerClosed.
func (c *Client) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return "", ErrServerClosed
		}
		return "", fmt.Errorf("failed to read from server: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// Send writes one newline-terminated line to the server.
func (c *Client) Send(line string) error {
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("failed to write to server: %w", err)
	}
	return nil
}

// Welcome reads the banner the server sends immediately after accept.
func (c *Client) Welcome() (string, error) {
	return c.ReadLine()
}

// Login performs the two-line handshake. On success it returns the server's
// greeting and ok=true. On bad credentials under the retry policy it returns
// ok=false and the caller may try again. Under the strict policy the server
// closes instead, which surfaces as ErrServerClosed.
func (c *Client) Login(username, password string) (greeting string, ok bool, err error) {
	if err := c.Send(protocol.UserPrefix + username); err != nil {
		return "", false, err
	}
	if err := c.Send(protocol.PasswordPrefix + password); err != nil {
		return "", false, err
	}

	reply, err := c.ReadLine()
	if err != nil {
		return "", false, err
	}
	if reply == protocol.MsgLoginFailed {
		return "", false, nil
	}
	return reply, true, nil
}

// Do validates a command line locally, sends it, and returns the server's
// reply. Invalid lines are rejected without touching the wire, so a typo
// cannot cost the connection. Do must not be called with "quit"; use Quit.
func (c *Client) Do(line string) (string, error) {
	if err := protocol.ValidateCommand(line); err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "quit" {
		return "", errors.New("quit has no reply; use Quit")
	}
	if err := c.Send(line); err != nil {
		return "", err
	}
	return c.ReadLine()
}

// Quit sends the quit command and waits for the server to close.
func (c *Client) Quit() error {
	if err := c.Send("quit"); err != nil {
		return err
	}
	// The server closes without a reply; anything else is unexpected.
	extra, err := c.ReadLine()
	if errors.Is(err, ErrServerClosed) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("unexpected data after quit: %q", extra)
}
