// ABOUTME: BSD and macOS termios ioctl request numbers for the e2e tests
// ABOUTME: Used to inspect the outer terminal while screenhook runs

//go:build darwin || freebsd || netbsd || openbsd

package e2e

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TIOCGETA
