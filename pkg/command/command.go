// Package command implements the pure evaluators behind the post-login
// protocol commands: parentheses balance checking, least common multiple,
// and the Caesar cipher.
//
// All functions are stateless and safe for concurrent use.
package command

import (
	"errors"
	"strings"
)

// ErrInvalidInput indicates that a command operand does not satisfy the
// evaluator's input domain (e.g. non-letter characters in Caesar text).
var ErrInvalidInput = errors.New("invalid input")

// Balanced reports whether the parentheses in s form a balanced sequence:
// equal numbers of '(' and ')' with no prefix containing more closes than
// opens. Any character that is not a parenthesis is ignored.
func Balanced(s string) bool {
	depth := 0
	for _, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// LCM returns the least common multiple of x and y.
// LCM(0, n) and LCM(n, 0) are defined as 0.
func LCM(x, y int64) int64 {
	if x == 0 || y == 0 {
		return 0
	}
	a, b := abs(x), abs(y)
	return a / gcd(a, b) * b
}

// gcd computes the greatest common divisor of two non-negative integers
// using the Euclidean algorithm.
func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Caesar applies a Caesar cipher to text, rotating each English letter by
// shift positions. The shift may be negative or exceed 26; it is normalized
// into [0,26). Output letters are lowercased and spaces are preserved.
//
// Returns ErrInvalidInput if text contains any character other than an
// English letter or a space.
func Caesar(text string, shift int) (string, error) {
	k := ((shift % 26) + 26) % 26

	var b strings.Builder
	b.Grow(len(text))

	for _, ch := range text {
		switch {
		case ch == ' ':
			b.WriteByte(' ')
		case ch >= 'a' && ch <= 'z':
			b.WriteByte(byte('a' + (int(ch-'a')+k)%26))
		case ch >= 'A' && ch <= 'Z':
			b.WriteByte(byte('a' + (int(ch-'A')+k)%26))
		default:
			return "", ErrInvalidInput
		}
	}

	return b.String(), nil
}
