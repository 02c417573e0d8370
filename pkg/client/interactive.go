package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/lineserv/internal/cli/prompt"
	"github.com/marmos91/lineserv/pkg/protocol"
)

// Interactive runs a full terminal session against the server at addr: the
// banner, a login loop that retries on rejected credentials, then a command
// loop with local validation. It returns nil when the session ends normally
// (quit, EOF, or Ctrl+C at a prompt).
func Interactive(ctx context.Context, addr string) error {
	c, err := Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	welcome, err := c.Welcome()
	if err != nil {
		return err
	}
	fmt.Println(welcome)

	if err := loginLoop(c); err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	return commandLoop(c)
}

// loginLoop prompts for credentials until the server accepts a pair. Under
// the strict login policy the first rejection closes the connection, which
// surfaces here as ErrServerClosed.
func loginLoop(c *Client) error {
	for {
		username, err := prompt.InputRequired("Username")
		if err != nil {
			return err
		}
		password, err := prompt.Password("Password")
		if err != nil {
			return err
		}

		greeting, ok, err := c.Login(username, password)
		if err != nil {
			return err
		}
		if ok {
			fmt.Println(greeting)
			return nil
		}
		fmt.Println(protocol.MsgLoginFailed)
	}
}

func commandLoop(c *Client) error {
	for {
		line, err := prompt.Input("lineserv", "")
		if err != nil {
			if prompt.IsAborted(err) {
				return c.Quit()
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			return c.Quit()
		}

		reply, err := c.Do(line)
		if err != nil {
			// A line that fails local validation never reaches the
			// wire; report it and keep the session alive.
			if errors.Is(err, protocol.ErrMalformedCommand) {
				fmt.Println(err)
				continue
			}
			return err
		}
		fmt.Println(reply)
	}
}
