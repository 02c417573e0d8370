package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lineserv/pkg/auth"
)

func testStore(t *testing.T) *auth.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users")
	require.NoError(t, os.WriteFile(path, []byte("alice\tsecret\nbob\thunter2\n"), 0o600))
	store, err := auth.Load(path)
	require.NoError(t, err)
	return store
}

func login(t *testing.T, s *Session, username, password string) []string {
	t.Helper()
	responses, closeConn := s.HandleLine("User: " + username)
	require.False(t, closeConn)
	require.Empty(t, responses)

	responses, closeConn = s.HandleLine("Password: " + password)
	require.False(t, closeConn)
	return responses
}

func TestSession_LoginSuccess(t *testing.T) {
	s := NewSession(testStore(t), PolicyRetry, nil)
	assert.Equal(t, PhaseAwaitingUsername, s.Phase())

	responses := login(t, s, "alice", "secret")
	assert.Equal(t, []string{"Hi alice, good to see you"}, responses)
	assert.Equal(t, PhaseAuthenticated, s.Phase())
	assert.Equal(t, "alice", s.Username())
}

func TestSession_LoginWrongPassword_Retry(t *testing.T) {
	s := NewSession(testStore(t), PolicyRetry, nil)

	responses := login(t, s, "alice", "wrong")
	assert.Equal(t, []string{"Failed to log in."}, responses)
	assert.Equal(t, PhaseAwaitingUsername, s.Phase())
	assert.Empty(t, s.Username(), "pending username must be cleared")

	// A retry with good credentials succeeds.
	responses = login(t, s, "alice", "secret")
	assert.Equal(t, []string{"Hi alice, good to see you"}, responses)
}

func TestSession_LoginUnknownUser_Retry(t *testing.T) {
	s := NewSession(testStore(t), PolicyRetry, nil)

	responses := login(t, s, "mallory", "secret")
	assert.Equal(t, []string{"Failed to log in."}, responses)
	assert.Equal(t, PhaseAwaitingUsername, s.Phase())
}

func TestSession_LoginWrongPassword_Strict(t *testing.T) {
	s := NewSession(testStore(t), PolicyStrict, nil)

	_, closeConn := s.HandleLine("User: alice")
	require.False(t, closeConn)

	responses, closeConn := s.HandleLine("Password: wrong")
	assert.True(t, closeConn)
	assert.Empty(t, responses)
}

// A line that is not a login line at all is a protocol violation under
// either policy; only bad credentials are retryable. A pre-login "quit"
// therefore closes the connection with no response.
func TestSession_MalformedUsernameLine(t *testing.T) {
	for _, policy := range []LoginPolicy{PolicyRetry, PolicyStrict} {
		for _, line := range []string{"hello there", "quit", "Password: x", "User: "} {
			s := NewSession(testStore(t), policy, nil)

			responses, closeConn := s.HandleLine(line)
			assert.True(t, closeConn, "policy %v line %q", policy, line)
			assert.Empty(t, responses, "policy %v line %q", policy, line)
		}
	}
}

func TestSession_MalformedPasswordLine(t *testing.T) {
	s := NewSession(testStore(t), PolicyRetry, nil)

	_, closeConn := s.HandleLine("User: alice")
	require.False(t, closeConn)

	responses, closeConn := s.HandleLine("not a password line")
	assert.True(t, closeConn)
	assert.Empty(t, responses)
}

func authenticated(t *testing.T, policy LoginPolicy) *Session {
	t.Helper()
	s := NewSession(testStore(t), policy, nil)
	login(t, s, "alice", "secret")
	require.Equal(t, PhaseAuthenticated, s.Phase())
	return s
}

func TestSession_Commands(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"parentheses: (())", "the parentheses are balanced: yes"},
		{"parentheses: (()", "the parentheses are balanced: no"},
		{"parentheses: a(b)c", "the parentheses are balanced: yes"},
		{"lcm: 4 6", "the lcm is: 12"},
		{"lcm: 0 9", "the lcm is: 0"},
		{"lcm: -4 6", "the lcm is: 12"},
		{"caesar: hello 3", "the ciphertext is: khoor"},
		{"caesar: HELLO WORLD 0", "the ciphertext is: hello world"},
		{"caesar: abc1 3", "error: invalid input"},
	}

	s := authenticated(t, PolicyRetry)
	for _, tt := range tests {
		responses, closeConn := s.HandleLine(tt.line)
		assert.False(t, closeConn, "line %q", tt.line)
		assert.Equal(t, []string{tt.want}, responses, "line %q", tt.line)
		assert.Equal(t, PhaseAuthenticated, s.Phase(), "line %q must keep the session open", tt.line)
	}
}

func TestSession_Quit(t *testing.T) {
	s := authenticated(t, PolicyRetry)

	responses, closeConn := s.HandleLine("quit")
	assert.True(t, closeConn)
	assert.Empty(t, responses, "quit has no reply")
}

func TestSession_MalformedCommandCloses(t *testing.T) {
	for _, line := range []string{"nonsense", "lcm: a b", "lcm: 1", "caesar: abc", "User: alice"} {
		s := authenticated(t, PolicyRetry)

		responses, closeConn := s.HandleLine(line)
		assert.True(t, closeConn, "line %q", line)
		assert.Empty(t, responses, "line %q", line)
	}
}
