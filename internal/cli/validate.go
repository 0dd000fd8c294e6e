package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courseforge/courseforge/internal/schema"
)

// ValidationResult is the payload of a validate run.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a course document",
		Long: `Validate a course document (JSON or YAML) against the course schema.

Checks required fields, enumerated lesson types and access levels,
identifier uniqueness, parent references, and order fields. All
violations are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tree, verrs, err := LoadDocument(path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read document", err)
	}
	if len(verrs) > 0 {
		return reportInvalidDocument(formatter, path, verrs)
	}

	formatter.VerboseLog("document %s: %d modules", path, len(tree.Modules))
	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success(fmt.Sprintf("OK: %s is a valid course document (%d modules)", path, len(tree.Modules)))
}

// reportInvalidDocument prints every violation and returns the
// failure exit code.
func reportInvalidDocument(formatter *OutputFormatter, path string, verrs []schema.ValidationError) error {
	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeBadDocument, "document failed validation", ValidationResult{Errors: verrs})
	} else {
		fmt.Fprintf(formatter.Writer, "%s: %d validation error(s)\n", path, len(verrs))
		for _, e := range verrs {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, "document failed validation")
}
