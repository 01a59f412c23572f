// ABOUTME: Fire-and-forget shell executor for triggered hook commands
// ABOUTME: Each command runs via sh -c in its own process group; failures are only logged

package hooks

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mauromedda/screenhook/internal/log"
)

// SessionIDEnv is exported to every triggered command.
const SessionIDEnv = "SCREENHOOK_SESSION_ID"

const defaultShell = "sh"

// Executor launches triggered commands.
type Executor interface {
	Execute(commands []string)
}

// ShellExecutor runs each command through a shell without waiting for it.
type ShellExecutor struct {
	shell string
	env   []string
	wg    sync.WaitGroup
}

// NewShellExecutor returns an executor that runs commands with "sh -c".
// env entries ("KEY=value") are appended to the wrapper's environment.
func NewShellExecutor(env ...string) *ShellExecutor {
	return &ShellExecutor{shell: defaultShell, env: env}
}

// Execute starts every command and returns immediately. Launch failures and
// non-zero exits are logged and otherwise ignored.
func (e *ShellExecutor) Execute(commands []string) {
	for _, command := range commands {
		e.launch(command)
	}
}

// Wait blocks until every command launched so far has exited.
func (e *ShellExecutor) Wait() {
	e.wg.Wait()
}

func (e *ShellExecutor) launch(command string) {
	cmd := exec.Command(e.shell, "-c", command)
	cmd.Env = append(os.Environ(), e.env...)
	// Own process group: terminal signals aimed at the wrapper (and the
	// wrapped program) must not reach hook commands.
	setProcGroup(cmd)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		log.Warn("failed to execute command %q: %v", command, err)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := cmd.Wait()
		output := strings.TrimSpace(out.String())
		if err != nil {
			log.Warn("command %q failed: %v (output: %q)", command, err, output)
			return
		}
		log.Debug("command %q exited with: %s (output: %q)", command, cmd.ProcessState, output)
	}()
}
