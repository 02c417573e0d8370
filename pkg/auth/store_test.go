package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeUsersFile(t, "alice\tsecret\nbob\thunter2\n")

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	password, ok := store.Lookup("alice")
	assert.True(t, ok)
	assert.Equal(t, "secret", password)

	password, ok = store.Lookup("bob")
	assert.True(t, ok)
	assert.Equal(t, "hunter2", password)
}

func TestLoad_UnknownUser(t *testing.T) {
	path := writeUsersFile(t, "alice\tsecret\n")

	store, err := Load(path)
	require.NoError(t, err)

	_, ok := store.Lookup("mallory")
	assert.False(t, ok)
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	path := writeUsersFile(t, "alice\tsecret\n\n\nbob\thunter2\n")

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestLoad_MalformedLineIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing tab", "alice secret\n"},
		{"no password", "alice\t\n"},
		{"no username", "\tsecret\n"},
		{"bare username", "alice\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeUsersFile(t, tt.content)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestLoad_NoTrailingNewline(t *testing.T) {
	path := writeUsersFile(t, "alice\tsecret")

	store, err := Load(path)
	require.NoError(t, err)

	password, ok := store.Lookup("alice")
	assert.True(t, ok)
	assert.Equal(t, "secret", password)
}
