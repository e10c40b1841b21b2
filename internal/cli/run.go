package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/observability"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/scenario"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	EnvOptions

	Path  string
	RunID string
	Watch bool
	JSON  bool
	Debug bool

	// Stdout receives the report (default os.Stdout), Stderr logs and progress (default os.Stderr).
	Stdout io.Writer
	Stderr io.Writer

	// Source signals watch mode reruns. Defaults to a FileWatcher on Path.
	Source ports.Watchable
}

func (o *RunOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Watch && o.Source == nil {
		o.Source = NewFileWatcher(o.Path, DefaultDebounce)
	}
}

// ErrRunFailed is returned when a scenario ran but did not pass.
var ErrRunFailed = errors.New("run failed")

// Execute handles the 'run' command logic, dispatching to a single run or watch mode.
func Execute(opts RunOptions) error {
	opts.defaults()
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		return handleExecutionError(RunWatch(sigCtx, opts))
	}

	_, err := RunOnce(sigCtx, opts)
	if err != nil && sigCtx.Signal() != nil {
		printSystemMessage(opts.Stderr, "Interrupted (%s).", sigCtx.Signal())
	}
	return handleExecutionError(err)
}

// RunOnce runs the scenario at opts.Path and prints its report.
// A run that does not pass returns its record and an error wrapping ErrRunFailed.
func RunOnce(ctx context.Context, opts RunOptions) (*domain.RunRecord, error) {
	opts.defaults()
	logger := createLogger(opts.Debug, opts.Stderr)

	doc, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	if _, err := scenario.Parse(doc); err != nil {
		return nil, err
	}

	runnerOpts := []scenario.Option{}
	if opts.Debug {
		runnerOpts = append(runnerOpts, scenario.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if !opts.JSON {
		printer := tui.NewPrinter(opts.Stderr, isTerminal(opts.Stderr))
		runnerOpts = append(runnerOpts, scenario.WithStepObserver(func(_ context.Context, _ string, res domain.StepResult) {
			printer.Step(res)
		}))
		if isTerminal(opts.Stdout) {
			tui.PrintBanner(opts.Stderr)
		}
	}

	env, err := NewEnvironment(ctx, opts.EnvOptions, logger, runnerOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warn("failed to release environment", "err", err)
		}
	}()

	record, runErr := env.Runner.RunDocument(ctx, opts.RunID, doc)
	if record == nil {
		return nil, runErr
	}
	if err := writeRecord(opts, record); err != nil {
		return record, err
	}
	if runErr != nil {
		return record, fmt.Errorf("%w: %w", ErrRunFailed, runErr)
	}
	return record, nil
}

// writeRecord prints a record as JSON or as a rendered report.
func writeRecord(opts RunOptions, record *domain.RunRecord) error {
	if opts.JSON {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}
	report := tui.Report(record)
	if isTerminal(opts.Stdout) {
		render, err := tui.NewRenderer(terminalWidth(opts.Stdout))
		if err == nil {
			if out, err := render(report); err == nil {
				report = out
			}
		}
	}
	_, err := io.WriteString(opts.Stdout, report)
	return err
}

// Validate checks the scenario at path without running it.
func Validate(path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scenario: %w", err)
	}
	_, err = scenario.Parse(doc)
	return err
}

// VersionString returns the printable version.
func VersionString() string {
	return "easel version " + strings.TrimSpace(easel.Version)
}
