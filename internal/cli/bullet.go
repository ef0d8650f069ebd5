package cli

import (
	"github.com/spf13/cobra"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		afterID     string
		childOf     string
	)

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a bullet",
		Long: `Add a bullet to the current workspace.

By default the bullet lands at the end of the root level. With
--after it becomes the next sibling of that bullet; with --child-of
it becomes the first child.

Example:
  fathom add "Buy milk"
  fathom add --child-of blt_0192 "Oat, not dairy"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if afterID != "" && childOf != "" {
				return NewExitError(ExitCommandError, "--after and --child-of are mutually exclusive")
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.selectWorkspace(ctx, workspaceID); err != nil {
				return err
			}
			anchor, asChild := afterID, false
			if childOf != "" {
				anchor, asChild = childOf, true
			}
			id, err := s.doc.CreateAndInsertBullet(ctx, anchor, asChild)
			if err != nil {
				return domainExit(err)
			}
			if err := s.doc.UpdateContent(ctx, id, args[0]); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success(id)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().StringVar(&afterID, "after", "", "insert as next sibling of this bullet")
	cmd.Flags().StringVar(&childOf, "child-of", "", "insert as first child of this bullet")
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		note        string
		noteSet     bool
	)

	cmd := &cobra.Command{
		Use:           "edit <id> [content]",
		Short:         "Update a bullet's text or note",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			noteSet = cmd.Flags().Changed("note")
			if len(args) < 2 && !noteSet {
				return NewExitError(ExitCommandError, "nothing to update: pass new content or --note")
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.selectWorkspace(ctx, workspaceID); err != nil {
				return err
			}
			if len(args) == 2 {
				if err := s.doc.UpdateContent(ctx, args[0], args[1]); err != nil {
					return domainExit(err)
				}
			}
			if noteSet {
				if err := s.doc.UpdateContext(ctx, args[0], note); err != nil {
					return domainExit(err)
				}
			}
			return newFormatter(cmd, rootOpts).Success("updated")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().StringVar(&note, "note", "", "set the bullet's note")
	return cmd
}

// NewIndentCommand creates the indent command.
func NewIndentCommand(rootOpts *RootOptions) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:           "indent <id>",
		Short:         "Indent a bullet under its previous sibling",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindent(cmd, rootOpts, workspaceID, args[0], true)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	return cmd
}

// NewOutdentCommand creates the outdent command.
func NewOutdentCommand(rootOpts *RootOptions) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:           "outdent <id>",
		Short:         "Outdent a bullet after its current parent",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindent(cmd, rootOpts, workspaceID, args[0], false)
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	return cmd
}

func runReindent(cmd *cobra.Command, rootOpts *RootOptions, workspaceID, bulletID string, indent bool) error {
	s, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.selectWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	var ok bool
	if indent {
		ok, err = s.doc.Indent(ctx, bulletID)
	} else {
		ok, err = s.doc.Outdent(ctx, bulletID)
	}
	if err != nil {
		return domainExit(err)
	}
	if !ok {
		return NewExitError(ExitFailure, "bullet cannot move that way")
	}
	return newFormatter(cmd, rootOpts).Success("moved")
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		parentID    string
		index       int
		up          bool
		down        bool
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a bullet",
		Long: `Move a bullet within the tree.

--up and --down swap the bullet with its adjacent sibling. Otherwise
the bullet is reparented under --parent (or the root when omitted) at
position --index.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if up && down {
				return NewExitError(ExitCommandError, "--up and --down are mutually exclusive")
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := s.selectWorkspace(ctx, workspaceID); err != nil {
				return err
			}
			if up || down {
				var ok bool
				if up {
					ok, err = s.doc.MoveUp(ctx, args[0])
				} else {
					ok, err = s.doc.MoveDown(ctx, args[0])
				}
				if err != nil {
					return domainExit(err)
				}
				if !ok {
					return NewExitError(ExitFailure, "bullet is already at the boundary")
				}
				return newFormatter(cmd, rootOpts).Success("moved")
			}
			if err := s.doc.Move(ctx, args[0], parentID, index); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("moved")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().StringVar(&parentID, "parent", "", "new parent bullet id (empty = root)")
	cmd.Flags().IntVar(&index, "index", 0, "position among the new siblings")
	cmd.Flags().BoolVar(&up, "up", false, "swap with the previous sibling")
	cmd.Flags().BoolVar(&down, "down", false, "swap with the next sibling")
	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		clear       bool
	)

	cmd := &cobra.Command{
		Use:           "check <id>",
		Short:         "Mark a bullet done (or not, with --clear)",
		Args:          cobra.ExactArgs(1),
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
			if err := s.doc.SetChecked(ctx, args[0], !clear); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("updated")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().BoolVar(&clear, "clear", false, "mark not done")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bullet and its subtree",
		Long: `Delete a bullet. Deleting a bullet that has children requires
--yes; without it the command reports what confirmation would remove
and exits nonzero.`,
		Args:          cobra.ExactArgs(1),
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
			res, err := s.doc.Delete(ctx, args[0], yes)
			if err != nil {
				return domainExit(err)
			}
			if res.NeedsConfirmation {
				_ = newFormatter(cmd, rootOpts).Error("needs_confirmation",
					"bullet has children; re-run with --yes to delete the subtree")
				return NewExitError(ExitFailure, "deletion needs confirmation")
			}
			return newFormatter(cmd, rootOpts).Success("deleted")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without confirmation, children included")
	return cmd
}
