package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courseforge/courseforge/internal/backend"
	"github.com/courseforge/courseforge/internal/content"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the payload of a seed run.
type SeedResult struct {
	CourseID string `json:"course_id"`
	Modules  int    `json:"modules"`
	Lessons  int    `json:"lessons"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Import a course document into a local database",
		Long: `Validate a course document and import it into a SQLite database,
creating the database if it does not exist.

Document identifiers are discarded; the backend assigns permanent ones.
The assigned course id is printed for use with apply.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSeed(opts *SeedOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)

	tree, verrs, err := LoadDocument(path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read document", err)
	}
	if len(verrs) > 0 {
		return reportInvalidDocument(formatter, path, verrs)
	}

	b, err := backend.Open(opts.Database, backend.WithLogger(commandLogger(cmd, opts.Verbose)))
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open database", err)
	}
	defer b.Close()

	course, err := b.CreateCourse(ctx, &tree.Course)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot create course", err)
	}
	tree.Course = *course
	draftIDs(tree, content.TempIDGenerator{})

	saved, err := b.SaveCourse(ctx, tree)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot store course tree", err)
	}

	result := SeedResult{CourseID: saved.ID, Modules: len(saved.Modules)}
	for _, m := range saved.Modules {
		result.Lessons += len(m.Lessons)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("Seeded course %s (%d modules, %d lessons)",
		result.CourseID, result.Modules, result.Lessons))
}

// draftIDs replaces every identifier in the tree with a fresh
// placeholder and resyncs parent references. Document identifiers have
// no meaning in the target database.
func draftIDs(tree *content.CourseTree, gen content.IDGenerator) {
	for mi := range tree.Modules {
		mt := &tree.Modules[mi]
		mt.ID = gen.NewID()
		mt.CourseID = tree.ID
		for li := range mt.Lessons {
			lt := &mt.Lessons[li]
			lt.ID = gen.NewID()
			lt.ModuleID = mt.ID
			for ri := range lt.Resources {
				r := &lt.Resources[ri]
				r.ID = gen.NewID()
				r.LessonID = lt.ID
			}
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
