package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fathom-notes/fathom/internal/outline"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		zoomID      string
		query       string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the bullet tree",
		Long: `Print the current workspace's bullet tree.

--zoom restricts the view to one subtree; --search filters each level
to bullets whose subtree fuzzy-matches the query.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.selectWorkspace(ctx, workspaceID); err != nil {
				return err
			}
			if s.doc.WorkspaceLocked() {
				return NewExitError(ExitFailure, "workspace is locked")
			}
			if zoomID != "" {
				if err := s.doc.ZoomTo(ctx, zoomID); err != nil {
					return domainExit(err)
				}
			}
			s.doc.SetQuery(query)

			bullets := s.doc.FilteredBullets()
			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(bullets)
			}
			out := cmd.OutOrStdout()
			for _, crumb := range s.doc.Breadcrumbs(zoomID) {
				fmt.Fprintf(out, "# %s\n", crumb.Content)
			}
			renderForest(out, bullets, 0)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().StringVar(&zoomID, "zoom", "", "show only the subtree of this bullet")
	cmd.Flags().StringVarP(&query, "search", "s", "", "fuzzy search query")
	return cmd
}

func renderForest(w io.Writer, bullets []*outline.Bullet, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, b := range bullets {
		box := " "
		if b.Checked {
			box = "x"
		}
		fmt.Fprintf(w, "%s- [%s] %s  %s\n", indent, box, b.ID, b.Content)
		if b.Context != "" {
			fmt.Fprintf(w, "%s      (%s)\n", indent, b.Context)
		}
		if b.Collapsed {
			continue
		}
		renderForest(w, b.Children, depth+1)
	}
}
