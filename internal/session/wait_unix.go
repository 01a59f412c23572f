// ABOUTME: Non-blocking child status check built on wait4(WNOHANG)
// ABOUTME: Maps a normal exit to its code and a fatal signal to 128+signal

//go:build unix

package session

import (
	"errors"

	"golang.org/x/sys/unix"
)

// signalExitBase is added to the signal number of a signal-terminated child.
const signalExitBase = 128

// pollExit reaps pid if it has terminated. done is false while the child
// is still running.
func pollExit(pid int) (code int, done bool, err error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, false, err
		}
		if wpid == 0 {
			return 0, false, nil
		}
		break
	}
	code, done = exitCode(ws)
	return code, done, nil
}

func exitCode(ws unix.WaitStatus) (code int, done bool) {
	switch {
	case ws.Exited():
		return ws.ExitStatus(), true
	case ws.Signaled():
		return signalExitBase + int(ws.Signal()), true
	default:
		// Stopped or continued; wait4 without WUNTRACED should not report these.
		return 0, false
	}
}
