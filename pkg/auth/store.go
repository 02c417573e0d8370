// Package auth provides the credential store used to authenticate clients.
//
// Credentials are loaded once at startup from a tab-separated users file and
// are immutable afterwards, so lookups are safe to share across goroutines
// without synchronization.
package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Store is an immutable username to password mapping.
type Store struct {
	users map[string]string
}

// Load reads a users file of "username<TAB>password" lines and builds a
// Store. Blank lines are skipped. Any other malformed line (wrong field
// count, empty username or password) is an error: the server must refuse to
// start rather than run with a partial credential set.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	users := make(map[string]string)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		username, password, ok := strings.Cut(line, "\t")
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("users file %s: malformed entry at line %d", path, lineNo)
		}

		users[username] = password
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	return &Store{users: users}, nil
}

// Lookup returns the password registered for username and whether the
// username exists.
func (s *Store) Lookup(username string) (string, bool) {
	password, ok := s.users[username]
	return password, ok
}

// Len returns the number of registered users.
func (s *Store) Len() int {
	return len(s.users)
}
