// ABOUTME: BSD and macOS ioctl request numbers for reading and writing termios.
// ABOUTME: Mirrors the constants golang.org/x/term uses internally.

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import "golang.org/x/sys/unix"

const (
	ioctlReadTermios  = unix.TIOCGETA
	ioctlWriteTermios = unix.TIOCSETA
)
