// ABOUTME: Cobra command tree: wrap/run, check, config-path, and version
// ABOUTME: Flag parsing stops at the wrapped command so its own flags pass through

package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mauromedda/screenhook/internal/config"
	"github.com/mauromedda/screenhook/internal/hooks"
	"github.com/mauromedda/screenhook/internal/log"
	"github.com/mauromedda/screenhook/internal/session"
	"github.com/mauromedda/screenhook/internal/terminal"
)

const usageWrap = "screenhook [flags] <command> [args...]"

type streams struct {
	in   io.Reader
	out  io.Writer
	err  io.Writer
	term terminal.Terminal
}

// cli holds parsed flags and the exit code of the wrapped command.
type cli struct {
	streams

	configPath string
	logFile    string
	logLevel   string
	verbose    bool

	exitCode int
}

// execute runs the command tree and returns the process exit code.
func execute(args []string, s streams) int {
	root, c := newRootCmd(s)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(s.err, "screenhook: %v\n", err)
		return 1
	}
	return c.exitCode
}

func newRootCmd(s streams) (*cobra.Command, *cli) {
	c := &cli{streams: s}

	root := &cobra.Command{
		Use:   usageWrap,
		Short: "Run a terminal program and fire commands when text appears on its screen",
		Long: `screenhook runs a command inside a pseudo-terminal, passes its input and
output through unchanged, and watches the rendered screen. When a hook's
regular expression newly matches the settled screen, the hook's shell
command is started in the background.

Hooks are read from ` + "`screenhook config-path`" + ` unless --config is given.

Examples:
  screenhook ssh build-host
  screenhook -c hooks.yaml -- vim notes.txt
  screenhook --log-file /tmp/screenhook.log -v bash`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runWrap,
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "hook config file (default: "+config.DefaultConfigFile()+")")
	pf.StringVar(&c.logFile, "log-file", "", "write logs to this file (rotated)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log at info level")

	runCmd := &cobra.Command{
		Use:   "run [flags] <command> [args...]",
		Short: "Wrap a command (same as the bare form)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runWrap,
	}
	runCmd.Flags().SetInterspersed(false)

	root.AddCommand(
		runCmd,
		newCheckCmd(c),
		&cobra.Command{
			Use:   "config-path",
			Short: "Print the default hook config path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.DefaultConfigFile())
				return err
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "screenhook %s (%s) built %s\n", version, commit, date)
				return err
			},
		},
	)

	return root, c
}

// loadConfig reads the hook config and applies logging settings. Flags
// override the config file's [log] table.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := log.Config{File: cfg.Log.File, Level: cfg.Log.Level}
	if c.verbose {
		logCfg.Level = "info"
	}
	if c.logLevel != "" {
		logCfg.Level = c.logLevel
	}
	if c.logFile != "" {
		logCfg.File = c.logFile
	}
	if err := log.Init(logCfg); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return cfg, nil
}

func (c *cli) runWrap(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no command given; usage: " + usageWrap)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	log.With("session", id)
	log.Debug("loaded %d hooks", len(cfg.Hooks))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	code, err := session.Run(ctx, session.Options{
		Command:   args,
		Hooks:     cfg.Hooks,
		Stdin:     c.in,
		Stdout:    c.out,
		Terminal:  c.term,
		Executor:  hooks.NewShellExecutor(hooks.SessionIDEnv + "=" + id),
		SessionID: id,
	})
	if err != nil {
		return err
	}
	c.exitCode = code
	return nil
}
