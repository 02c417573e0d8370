package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogin(t *testing.T) {
	value, ok := ParseLogin("User: alice", UserPrefix)
	assert.True(t, ok)
	assert.Equal(t, "alice", value)

	value, ok = ParseLogin("Password: hunter2", PasswordPrefix)
	assert.True(t, ok)
	assert.Equal(t, "hunter2", value)

	for _, line := range []string{"user: alice", "User:alice", "User: ", "alice", ""} {
		_, ok := ParseLogin(line, UserPrefix)
		assert.False(t, ok, "line %q", line)
	}
}

func TestParseCommand_Quit(t *testing.T) {
	for _, line := range []string{"quit", "  quit  ", "quit\t"} {
		cmd, err := ParseCommand(line)
		require.NoError(t, err, "line %q", line)
		assert.IsType(t, Quit{}, cmd)
	}
}

func TestParseCommand_Parentheses(t *testing.T) {
	cmd, err := ParseCommand("parentheses: (()(")
	require.NoError(t, err)
	assert.Equal(t, Parentheses{Arg: "(()("}, cmd)

	// An empty argument parses; only the client-side validator rejects it.
	cmd, err = ParseCommand("parentheses: ")
	require.NoError(t, err)
	assert.Equal(t, Parentheses{Arg: ""}, cmd)

	_, err = ParseCommand("parentheses:")
	assert.ErrorIs(t, err, ErrMalformedCommand)
}

func TestParseCommand_LCM(t *testing.T) {
	cmd, err := ParseCommand("lcm: 4 6")
	require.NoError(t, err)
	assert.Equal(t, LCMOf{X: 4, Y: 6}, cmd)

	cmd, err = ParseCommand("lcm: -4 0")
	require.NoError(t, err)
	assert.Equal(t, LCMOf{X: -4, Y: 0}, cmd)

	for _, line := range []string{"lcm:", "lcm: 4", "lcm: 4 6 8", "lcm: a 6", "lcm: 4 b", "lcm: 4.5 6"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrMalformedCommand, "line %q", line)
	}
}

func TestParseCommand_Caesar(t *testing.T) {
	cmd, err := ParseCommand("caesar: hello world 3")
	require.NoError(t, err)
	assert.Equal(t, Caesar{Text: "hello world", Shift: 3}, cmd)

	cmd, err = ParseCommand("caesar: abc -27")
	require.NoError(t, err)
	assert.Equal(t, Caesar{Text: "abc", Shift: -27}, cmd)

	for _, line := range []string{"caesar:", "caesar: 3", "caesar: abc", "caesar: abc x"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrMalformedCommand, "line %q", line)
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, line := range []string{"", "hello", "PARENTHESES: ()", "lcm 4 6", "User: alice"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrMalformedCommand, "line %q", line)
	}
}

func TestValidateCommand(t *testing.T) {
	assert.NoError(t, ValidateCommand("quit"))
	assert.NoError(t, ValidateCommand("parentheses: ()"))
	assert.NoError(t, ValidateCommand("lcm: 3 5"))
	assert.NoError(t, ValidateCommand("caesar: abc 2"))

	assert.ErrorIs(t, ValidateCommand("parentheses: "), ErrMalformedCommand)
	assert.ErrorIs(t, ValidateCommand("nonsense"), ErrMalformedCommand)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "Hi alice, good to see you", FormatGreeting("alice"))
	assert.Equal(t, "the parentheses are balanced: yes", FormatBalanced(true))
	assert.Equal(t, "the parentheses are balanced: no", FormatBalanced(false))
	assert.Equal(t, "the lcm is: 12", FormatLCM(12))
	assert.Equal(t, "the ciphertext is: khoor", FormatCiphertext("khoor"))
}
