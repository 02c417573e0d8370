//go:build darwin

package logger

import "syscall"

// macOS uses TIOCGETA to read terminal attributes.
const ioctlTermiosReq = syscall.TIOCGETA
