// ABOUTME: Linux termios ioctl request numbers for the e2e tests
// ABOUTME: Used to inspect the outer terminal while screenhook runs

package e2e

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TCGETS
