package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lineserv/pkg/auth"
	"github.com/marmos91/lineserv/pkg/server"
)

// startServer runs a real server on an ephemeral port and returns its address.
func startServer(t *testing.T, policy server.LoginPolicy) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\tsecret\nbob\thunter2\n"), 0600))
	store, err := auth.Load(path)
	require.NoError(t, err)

	srv := server.New(server.Config{
		BindAddress:     "127.0.0.1",
		Port:            0,
		Policy:          policy,
		ShutdownTimeout: time.Second,
	}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("server did not stop within timeout")
		}
	})

	select {
	case <-srv.ListenerReady:
	case <-time.After(3 * time.Second):
		t.Fatal("server did not start within timeout")
	}

	return fmt.Sprintf("127.0.0.1:%d", srv.Port())
}

func connect(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_LoginAndCommands(t *testing.T) {
	addr := startServer(t, server.PolicyRetry)
	c := connect(t, addr)

	welcome, err := c.Welcome()
	require.NoError(t, err)
	assert.Equal(t, "Welcome! Please log in", welcome)

	greeting, ok, err := c.Login("alice", "secret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hi alice, good to see you", greeting)

	reply, err := c.Do("parentheses: (())")
	require.NoError(t, err)
	assert.Equal(t, "the parentheses are balanced: yes", reply)

	reply, err = c.Do("lcm: 4 6")
	require.NoError(t, err)
	assert.Equal(t, "the lcm is: 12", reply)

	reply, err = c.Do("caesar: hello 3")
	require.NoError(t, err)
	assert.Equal(t, "the ciphertext is: khoor", reply)

	require.NoError(t, c.Quit())
}

func TestClient_LoginRetry(t *testing.T) {
	addr := startServer(t, server.PolicyRetry)
	c := connect(t, addr)

	_, err := c.Welcome()
	require.NoError(t, err)

	_, ok, err := c.Login("alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	greeting, ok, err := c.Login("alice", "secret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hi alice, good to see you", greeting)
}

func TestClient_StrictPolicyClosure(t *testing.T) {
	addr := startServer(t, server.PolicyStrict)
	c := connect(t, addr)

	_, err := c.Welcome()
	require.NoError(t, err)

	_, _, err = c.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestClient_DoRejectsInvalidLocally(t *testing.T) {
	addr := startServer(t, server.PolicyRetry)
	c := connect(t, addr)

	_, err := c.Welcome()
	require.NoError(t, err)
	_, ok, err := c.Login("bob", "hunter2")
	require.NoError(t, err)
	require.True(t, ok)

	// None of these reach the wire, so the connection survives them all.
	for _, line := range []string{
		"make me a sandwich",
		"lcm: 4",
		"lcm: a b",
		"caesar: 7",
		"parentheses:",
	} {
		_, err := c.Do(line)
		assert.Error(t, err, "line %q should fail local validation", line)
	}

	reply, err := c.Do("lcm: 3 7")
	require.NoError(t, err)
	assert.Equal(t, "the lcm is: 21", reply)
}

func TestClient_QuitRejectedByDo(t *testing.T) {
	addr := startServer(t, server.PolicyRetry)
	c := connect(t, addr)

	_, err := c.Welcome()
	require.NoError(t, err)

	_, err = c.Do("quit")
	assert.Error(t, err)
}
