package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/courseforge/courseforge/internal/backend"
	"github.com/courseforge/courseforge/internal/engine"
	"github.com/courseforge/courseforge/internal/harness"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	Course   string
	Debounce time.Duration
}

// ApplyResult is the payload of an apply run.
type ApplyResult struct {
	CourseID string   `json:"course_id"`
	Steps    int      `json:"steps"`
	Events   []string `json:"events,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <scenario.yaml>",
		Short: "Run an editing scenario against a local database",
		Long: `Run a YAML editing scenario through the engine against a SQLite
database, with debounced autosave, and print the save-status
transitions each autosave target went through.

The scenario's course_id (or --course) must name a course already in
the database; seed one first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Course, "course", "", "course id (overrides the scenario's course_id)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 100*time.Millisecond, "autosave debounce window")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)

	sc, err := harness.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load scenario", err)
	}
	courseID := opts.Course
	if courseID == "" {
		courseID = sc.CourseID
	}
	if courseID == "" {
		msg := "scenario names no course_id and --course was not given"
		_ = formatter.Error(ErrCodeBadScenario, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	logger := commandLogger(cmd, opts.Verbose)
	b, err := backend.Open(opts.Database, backend.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open database", err)
	}
	defer b.Close()

	eng, err := engine.Load(ctx, b, courseID,
		engine.WithLogger(logger),
		engine.WithDebounce(opts.Debounce),
	)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load course", err)
	}
	defer eng.Close()

	formatter.VerboseLog("scenario %s: %d steps against course %s", sc.Name, len(sc.Steps), courseID)
	runner := harness.NewRunner(eng, nil)
	if runErr := runner.Run(ctx, sc.Steps); runErr != nil {
		_ = formatter.Error(ErrCodeApplyFailed, runErr.Error(), nil)
		return WrapExitError(ExitFailure, "scenario failed", runErr)
	}

	events, failed := drainEvents(eng)
	if failed {
		_ = formatter.Error(ErrCodeApplyFailed, "an autosave target failed", events)
		return NewExitError(ExitFailure, "an autosave target failed")
	}

	result := ApplyResult{CourseID: courseID, Steps: len(sc.Steps), Events: events}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, line := range events {
		fmt.Fprintln(formatter.Writer, line)
	}
	return formatter.Success(fmt.Sprintf("Applied %d steps to course %s", result.Steps, courseID))
}

// drainEvents empties the engine's status queue into printable lines
// and reports whether any target ended in failure.
func drainEvents(eng *engine.Engine) (lines []string, failed bool) {
	for {
		ev, ok := eng.Events().TryNext()
		if !ok {
			return lines, failed
		}
		line := fmt.Sprintf("%s: %s", ev.Target, ev.Status)
		if ev.Err != nil {
			line += fmt.Sprintf(" (%v)", ev.Err)
		}
		if ev.Status == engine.StatusFailed {
			failed = true
		}
		lines = append(lines, line)
	}
}
