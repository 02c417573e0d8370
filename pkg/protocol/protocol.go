// Package protocol defines the wire format of the line protocol spoken
// between lineserv and its clients: the login handshake, the authenticated
// command grammar, and the framing of newline-terminated messages.
//
// Both the server dispatch and the client-side pre-send validation parse
// commands through this package, so the two ends cannot drift apart.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is the TCP port the server listens on unless overridden.
const DefaultPort = 1337

// Server-to-client messages.
const (
	// MsgWelcome is sent exactly once, immediately after accept.
	MsgWelcome = "Welcome! Please log in"

	// MsgLoginFailed is sent on bad credentials under the retry policy.
	MsgLoginFailed = "Failed to log in."

	// MsgInvalidInput is the reply to a caesar command whose text contains
	// characters outside letters and spaces.
	MsgInvalidInput = "error: invalid input"
)

// Client-to-server line prefixes for the login phase.
const (
	UserPrefix     = "User: "
	PasswordPrefix = "Password: "
)

// ErrMalformedCommand indicates a line that does not match the command
// grammar for the authenticated phase. The server treats it as a protocol
// violation and closes the connection.
var ErrMalformedCommand = errors.New("malformed command")

// FormatGreeting returns the post-login greeting for username.
func FormatGreeting(username string) string {
	return fmt.Sprintf("Hi %s, good to see you", username)
}

// FormatBalanced returns the reply to a parentheses command.
func FormatBalanced(balanced bool) string {
	if balanced {
		return "the parentheses are balanced: yes"
	}
	return "the parentheses are balanced: no"
}

// FormatLCM returns the reply to an lcm command.
func FormatLCM(result int64) string {
	return fmt.Sprintf("the lcm is: %d", result)
}

// FormatCiphertext returns the reply to a successful caesar command.
func FormatCiphertext(ciphertext string) string {
	return fmt.Sprintf("the ciphertext is: %s", ciphertext)
}

// ParseLogin extracts the value from a login-phase line with the given
// prefix ("User: " or "Password: "). Returns false if the line does not
// start with the prefix or the value is empty.
func ParseLogin(line, prefix string) (string, bool) {
	value, ok := strings.CutPrefix(line, prefix)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Command is a parsed authenticated-phase command.
type Command interface {
	isCommand()
}

// Quit asks the server to close the connection without a reply.
type Quit struct{}

// Parentheses asks for a balance check of Arg. Characters other than
// parentheses in Arg are ignored by the evaluator.
type Parentheses struct {
	Arg string
}

// LCMOf asks for the least common multiple of X and Y.
type LCMOf struct {
	X, Y int64
}

// Caesar asks for Text shifted by Shift positions.
type Caesar struct {
	Text  string
	Shift int
}

func (Quit) isCommand()        {}
func (Parentheses) isCommand() {}
func (LCMOf) isCommand()       {}
func (Caesar) isCommand()      {}

// ParseCommand parses a single authenticated-phase line.
//
// Grammar:
//
//	quit
//	parentheses: X
//	lcm: X Y          (X, Y integers)
//	caesar: <text> X  (X integer, <text> non-empty, may contain spaces)
//
// Any other line, including a recognized keyword with malformed operands,
// yields ErrMalformedCommand. The parentheses argument may be empty; the
// caesar text may not.
func ParseCommand(line string) (Command, error) {
	if strings.TrimSpace(line) == "quit" {
		return Quit{}, nil
	}

	switch {
	case strings.HasPrefix(line, "parentheses:"):
		arg, ok := strings.CutPrefix(line, "parentheses: ")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
		}
		return Parentheses{Arg: arg}, nil

	case strings.HasPrefix(line, "lcm:"):
		parts := strings.Fields(line)
		if len(parts) != 3 || parts[0] != "lcm:" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
		}
		x, errX := strconv.ParseInt(parts[1], 10, 64)
		y, errY := strconv.ParseInt(parts[2], 10, 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: lcm operands must be integers", ErrMalformedCommand)
		}
		return LCMOf{X: x, Y: y}, nil

	case strings.HasPrefix(line, "caesar:"):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "caesar:"))
		idx := strings.LastIndex(rest, " ")
		if idx <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
		}
		text, shiftStr := rest[:idx], rest[idx+1:]
		shift, err := strconv.Atoi(shiftStr)
		if err != nil {
			return nil, fmt.Errorf("%w: caesar shift must be an integer", ErrMalformedCommand)
		}
		return Caesar{Text: text, Shift: shift}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
}

// ValidateCommand checks a command line on the client side before it is
// sent, avoiding a round-trip that would only get the connection closed.
// It is slightly stricter than ParseCommand: an empty parentheses argument
// is rejected, matching the interactive client's historical behavior.
func ValidateCommand(line string) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		return err
	}
	if p, ok := cmd.(Parentheses); ok && p.Arg == "" {
		return fmt.Errorf("%w: parentheses argument must not be empty", ErrMalformedCommand)
	}
	return nil
}
