// Package run runs the top-level task of a command-line program.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ridge/multisearch/tlog"
	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var fs = newFlagSet()

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("log-format", string(tlog.FormatText), "Log format (json|text)")
	fs.String("log-color", "auto", "Colored logs (yes|no|auto)")
	fs.BoolP("verbose", "v", false, "Enable verbose (debug level) messages")
	// Hide usage while parsing the command line here, will be covered by a regular command line parsing.
	fs.Usage = func() {}
	return fs
}

func init() {
	// Add options help to the main command-line parser.
	pflag.CommandLine.AddFlagSet(fs)
}

// Tool runs the top-level task of your program, watching for signals.
//
// The context passed to the task will contain a logger configured from the
// --log-format, --log-color and --verbose flags.
//
// If an interruption or termination signal arrives, the context passed to the
// task will be closed.
//
// Tool does not return. It exits with code 0 if the task returns nil, with
// the code given by WithExitCode if the error implements it, and with code 1
// otherwise.
//
// Any defer handlers installed before calling Tool are ignored. For this
// reason, it is recommended that most or all your main code is inside the task.
//
// Example:
//
//	func main() {
//	    pflag.Parse()
//	    run.Tool(func(ctx context.Context) error {
//	        persons, err := people.LoadFile(ctx, pflag.Arg(0), 0)
//	        if err != nil {
//	            return err
//	        }
//	        ...
//	    })
//	}
func Tool(task func(ctx context.Context) error) {
	// os.Exit doesn't run deferred functions, so we'll call it in the first
	// defer which runs last
	var err error
	defer func() {
		if err != nil {
			os.Exit(ExitCode(err))
		}
	}()

	ctx := rootContext()

	err = parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("main", parallel.Exit, task)
		spawn("signals", parallel.Exit, handleSignals)
		return nil
	})
	if err != nil {
		var usage UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "%s\n", usage.Error())
			pflag.Usage()
			return
		}
		tlog.Get(ctx).Error("Error", zap.Error(err))
	}
}

// Server runs the top-level task of your program similar to Tool.
//
// The difference is in signal handling: if the top-level task exits with
// (possibly wrapped) context.Canceled while handling the signal, the program
// exits with code 0.
//
// Note that any other error returned during signal handling is still considered
// an error and makes Server exit with code 1.
func Server(task func(ctx context.Context) error) {
	Tool(func(ctx context.Context) error {
		err := task(ctx)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	})
}

// WithExitCode is an optional interface that can be implemented by an error.
//
// When a (possibly wrapped) error implementing WithExitCode reaches the top
// level, the value returned by the ExitCode method becomes the exit code of the
// process. The default exit code for other errors is 1.
type WithExitCode interface {
	ExitCode() int
}

// ExitCode returns the process exit code for an error returned by a task
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var wec WithExitCode
	if errors.As(err, &wec) {
		return wec.ExitCode()
	}
	return 1
}

// UsageError is an error in the command-line arguments.
//
// Tool prints it along with the usage and exits with code 2.
type UsageError struct {
	Message string
}

func (e UsageError) Error() string {
	return e.Message
}

// ExitCode implements WithExitCode
func (UsageError) ExitCode() int {
	return 2
}

// Usagef returns a UsageError with a formatted message
func Usagef(format string, args ...any) error {
	return UsageError{Message: fmt.Sprintf(format, args...)}
}

// parseConfig returns the logger configuration derived from the command line
func parseConfig(fs *pflag.FlagSet, args []string) (tlog.Config, error) {
	if err := fs.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return tlog.Config{}, err
	}

	format := tlog.Format(must.OK1(fs.GetString("log-format")))
	if format != tlog.FormatJSON && format != tlog.FormatText {
		return tlog.Config{}, fmt.Errorf("invalid --log-format value %q", format)
	}
	colorArg := must.OK1(fs.GetString("log-color"))
	color, ok := tlog.ParseColor(colorArg)
	if !ok {
		return tlog.Config{}, fmt.Errorf("invalid --log-color value %q", colorArg)
	}

	return tlog.Config{
		Name:    filepath.Base(os.Args[0]),
		Format:  format,
		Color:   color,
		Verbose: must.OK1(fs.GetBool("verbose")),
	}, nil
}

func rootContext() context.Context {
	config, err := parseConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return tlog.WithLogger(context.Background(), tlog.New(config))
}
