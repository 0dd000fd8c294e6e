package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/store"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Render a course document as an outline",
		Long: `Render the denormalized course tree from a document (JSON or YAML).

The document is validated and normalized first, so the rendered tree
reflects ordering-list positions, not raw order fields. Text mode
prints an indented outline; json mode prints the canonical tree.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, args[0], cmd)
		},
	}
}

func runTree(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	ensureIDs(tree, content.TempIDGenerator{})
	canonical := store.Denormalize(store.FromTree(tree))
	if opts.Format == "json" {
		return formatter.Success(canonical)
	}
	return formatter.Success(strings.TrimRight(renderOutline(canonical), "\n"))
}

// ensureIDs gives placeholder identifiers to entities that lack one
// and resyncs parent references, so id-less documents normalize into
// distinct map keys.
func ensureIDs(tree *content.CourseTree, gen content.IDGenerator) {
	if tree.ID == "" {
		tree.ID = gen.NewID()
	}
	for mi := range tree.Modules {
		mt := &tree.Modules[mi]
		if mt.ID == "" {
			mt.ID = gen.NewID()
		}
		mt.CourseID = tree.ID
		for li := range mt.Lessons {
			lt := &mt.Lessons[li]
			if lt.ID == "" {
				lt.ID = gen.NewID()
			}
			lt.ModuleID = mt.ID
			for ri := range lt.Resources {
				r := &lt.Resources[ri]
				if r.ID == "" {
					r.ID = gen.NewID()
				}
				r.LessonID = lt.ID
			}
		}
	}
}

// renderOutline formats a course tree as an indented text outline.
func renderOutline(tree *content.CourseTree) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s] %s\n", tree.Title, courseStatus(&tree.Course), formatPrice(tree.PriceCents))
	for mi, m := range tree.Modules {
		fmt.Fprintf(&b, "  %d. %s\n", mi+1, m.Title)
		for li, l := range m.Lessons {
			fmt.Fprintf(&b, "     %d.%d. %s (%s, %s)\n", mi+1, li+1, l.Title, l.Type, l.Access)
			for _, r := range l.Resources {
				marker := ""
				if r.Premium {
					marker = " premium"
				}
				fmt.Fprintf(&b, "          - %s [%s%s] %s\n", r.Title, r.Type, marker, r.URL)
			}
		}
	}
	return b.String()
}

func courseStatus(c *content.Course) string {
	if c.Published {
		return "published"
	}
	return "draft"
}

func formatPrice(cents int64) string {
	if cents == 0 {
		return "free"
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
