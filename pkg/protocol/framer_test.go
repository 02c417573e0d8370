package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFramer_SingleLine(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, lines)
	assert.Equal(t, 0, f.Pending())
}

func TestLineFramer_MultipleLinesInOneFeed(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed([]byte("one\ntwo\nthree\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestLineFramer_PartialLineStaysBuffered(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, lines)
	assert.Equal(t, 2, f.Pending())

	lines, err = f.Feed([]byte("o\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, lines)
	assert.Equal(t, 0, f.Pending())
}

func TestLineFramer_OneByteAtATime(t *testing.T) {
	f := NewLineFramer(0)

	var got []string
	for _, b := range []byte("User: alice\nPassword: x\n") {
		lines, err := f.Feed([]byte{b})
		require.NoError(t, err)
		got = append(got, lines...)
	}

	assert.Equal(t, []string{"User: alice", "Password: x"}, got)
}

func TestLineFramer_EmptyFeed(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed(nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLineFramer_EmptyLine(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, lines)
}

func TestLineFramer_StripsCarriageReturn(t *testing.T) {
	f := NewLineFramer(0)

	lines, err := f.Feed([]byte("quit\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"quit"}, lines)
}

func TestLineFramer_MaxLineLength(t *testing.T) {
	f := NewLineFramer(8)

	_, err := f.Feed([]byte("12345678"))
	require.NoError(t, err)

	_, err = f.Feed([]byte("9"))
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestLineFramer_MaxAppliesAfterCompleteLines(t *testing.T) {
	f := NewLineFramer(8)

	// A long feed whose terminated lines drain the buffer below the limit.
	lines, err := f.Feed([]byte(strings.Repeat("abc\n", 10) + "tail"))
	require.NoError(t, err)
	assert.Len(t, lines, 10)
	assert.Equal(t, 4, f.Pending())
}
