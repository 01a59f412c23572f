// ABOUTME: Linux ioctl request numbers for reading and writing termios.
// ABOUTME: Mirrors the constants golang.org/x/term uses internally.

package terminal

import "golang.org/x/sys/unix"

const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)
