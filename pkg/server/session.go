package server

import (
	"errors"
	"fmt"

	"github.com/marmos91/lineserv/pkg/auth"
	"github.com/marmos91/lineserv/pkg/command"
	"github.com/marmos91/lineserv/pkg/metrics"
	"github.com/marmos91/lineserv/pkg/protocol"
)

// Phase is the protocol phase of a single connection.
type Phase int

const (
	PhaseAwaitingUsername Phase = iota
	PhaseAwaitingPassword
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingUsername:
		return "awaiting_username"
	case PhaseAwaitingPassword:
		return "awaiting_password"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginPolicy selects how pre-login failures are handled.
type LoginPolicy int

const (
	// PolicyRetry answers "Failed to log in." and returns the connection
	// to the awaiting-username phase.
	PolicyRetry LoginPolicy = iota

	// PolicyStrict closes the connection on the first failed or malformed
	// login exchange.
	PolicyStrict
)

// ParsePolicy maps a configuration string to a LoginPolicy. The empty
// string selects the default retry policy.
func ParsePolicy(name string) (LoginPolicy, error) {
	switch name {
	case "", "retry":
		return PolicyRetry, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyRetry, fmt.Errorf("unknown login policy %q (expected retry or strict)", name)
	}
}

// Session is the per-connection protocol state machine. It is driven one
// complete line at a time by the reactor loop and never touched by any
// other goroutine.
//
// A Session is in exactly one phase; only authenticated sessions accept
// commands other than the login sequence.
type Session struct {
	phase           Phase
	pendingUsername string
	username        string

	store   *auth.Store
	policy  LoginPolicy
	metrics metrics.ServerMetrics
}

// NewSession creates a session in the awaiting-username phase.
// metrics may be nil.
func NewSession(store *auth.Store, policy LoginPolicy, m metrics.ServerMetrics) *Session {
	return &Session{store: store, policy: policy, metrics: m}
}

// Phase returns the current protocol phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Username returns the authenticated username, or the pending one during
// the password phase.
func (s *Session) Username() string {
	if s.phase == PhaseAuthenticated {
		return s.username
	}
	return s.pendingUsername
}

// HandleLine advances the state machine with one complete inbound line.
// It returns the responses to write (without delimiters) and whether the
// connection must be closed. Responses are written even when close is
// requested; quit and protocol violations produce no response at all.
func (s *Session) HandleLine(line string) (responses []string, closeConn bool) {
	switch s.phase {
	case PhaseAwaitingUsername:
		return s.handleUsername(line)
	case PhaseAwaitingPassword:
		return s.handlePassword(line)
	default:
		return s.handleCommand(line)
	}
}

// handleUsername expects "User: <value>". A line with any other shape is a
// protocol violation and closes the connection regardless of policy, so a
// pre-login "quit" terminates silently.
func (s *Session) handleUsername(line string) ([]string, bool) {
	username, ok := protocol.ParseLogin(line, protocol.UserPrefix)
	if !ok {
		s.recordViolation("malformed_login")
		return nil, true
	}

	s.pendingUsername = username
	s.phase = PhaseAwaitingPassword
	return nil, false
}

// handlePassword expects "Password: <value>" and checks the stored
// username/password pair against the credential store. A malformed line is
// a protocol violation; wrong credentials are handled per the configured
// policy.
func (s *Session) handlePassword(line string) ([]string, bool) {
	password, ok := protocol.ParseLogin(line, protocol.PasswordPrefix)
	if !ok {
		s.pendingUsername = ""
		s.recordViolation("malformed_login")
		return nil, true
	}

	expected, known := s.store.Lookup(s.pendingUsername)
	if !known || expected != password {
		s.recordLogin(metrics.LoginFailure)
		return s.credentialFailure()
	}

	s.username = s.pendingUsername
	s.pendingUsername = ""
	s.phase = PhaseAuthenticated
	s.recordLogin(metrics.LoginSuccess)
	return []string{protocol.FormatGreeting(s.username)}, false
}

// credentialFailure applies the configured policy to bad credentials. The
// pending username is always cleared.
func (s *Session) credentialFailure() ([]string, bool) {
	s.pendingUsername = ""
	s.phase = PhaseAwaitingUsername

	if s.policy == PolicyStrict {
		return nil, true
	}
	return []string{protocol.MsgLoginFailed}, false
}

// handleCommand dispatches an authenticated-phase line.
func (s *Session) handleCommand(line string) ([]string, bool) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		s.recordViolation("malformed_command")
		return nil, true
	}

	switch c := cmd.(type) {
	case protocol.Quit:
		s.recordCommand("quit")
		return nil, true

	case protocol.Parentheses:
		s.recordCommand("parentheses")
		return []string{protocol.FormatBalanced(command.Balanced(c.Arg))}, false

	case protocol.LCMOf:
		s.recordCommand("lcm")
		return []string{protocol.FormatLCM(command.LCM(c.X, c.Y))}, false

	case protocol.Caesar:
		s.recordCommand("caesar")
		ciphertext, err := command.Caesar(c.Text, c.Shift)
		if errors.Is(err, command.ErrInvalidInput) {
			return []string{protocol.MsgInvalidInput}, false
		}
		return []string{protocol.FormatCiphertext(ciphertext)}, false

	default:
		s.recordViolation("malformed_command")
		return nil, true
	}
}

func (s *Session) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}

func (s *Session) recordCommand(name string) {
	if s.metrics != nil {
		s.metrics.RecordCommand(name)
	}
}

func (s *Session) recordViolation(reason string) {
	if s.metrics != nil {
		s.metrics.RecordProtocolViolation(reason)
	}
}
