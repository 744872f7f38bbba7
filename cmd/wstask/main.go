package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wstask/internal/config"
	"github.com/vango-dev/wstask/internal/errors"
	"github.com/vango-dev/wstask/internal/logging"
	"github.com/vango-dev/wstask/internal/term"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds state shared by every command: the loaded config, the logger
// and the output streams.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *logging.Logger
	color  bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wstask",
		Short: "Drive WebSocket connections from the terminal",
		Long: `wstask connects to WebSocket endpoints through a managed task handle.

The handle decodes text and binary frames, reports open, close and
error transitions, and releases the connection when it is dropped.

Commands:
  connect   interactive session: connect, send, disconnect
  echo      one-shot round trip against an echo endpoint
  serve     run a rate limited echo server
  init      write a default wstask.json`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to wstask.json (default: nearest one above the working directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		connectCmd(a),
		echoCmd(a),
		serveCmd(a),
		initCmd(a),
		versionCmd(a),
	)

	return rootCmd
}

// setup configures colors, loads and validates the config and builds the
// logger.
func (a *app) setup() error {
	a.setupColors()

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger, err = logging.New(logging.Options{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		Output: a.stderr,
	})
	if err != nil {
		return errors.New("W106").Wrap(err)
	}
	return nil
}

func (a *app) setupColors() {
	a.color = !a.noColor
	if f, ok := a.stderr.(*os.File); ok && !term.ColorEnabled(f) {
		a.color = false
	}
	if !a.color {
		errors.DisableColors()
	}
}

func (a *app) paint(code, text string) string {
	if !a.color {
		return text
	}
	return code + text + "\033[0m"
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", a.paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (a *app) info(format string, args ...any) {
	fmt.Fprintf(a.stdout, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", a.paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func (a *app) errorMsg(format string, args ...any) {
	fmt.Fprintf(a.stderr, "%s %s\n", a.paint("\033[31m", "✗"), fmt.Sprintf(format, args...))
}
