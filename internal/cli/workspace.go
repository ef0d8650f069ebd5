package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewWorkspaceCommand creates the workspace command group.
func NewWorkspaceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
		Long: `Manage workspaces: isolated namespaces each holding one bullet
forest and its event log. A workspace is the unit of locking, export,
and deletion.`,
	}

	cmd.AddCommand(newWorkspaceListCommand(rootOpts))
	cmd.AddCommand(newWorkspaceCreateCommand(rootOpts))
	cmd.AddCommand(newWorkspaceRenameCommand(rootOpts))
	cmd.AddCommand(newWorkspaceRemoveCommand(rootOpts))
	cmd.AddCommand(newWorkspaceResetCommand(rootOpts))
	cmd.AddCommand(newWorkspaceLockCommand(rootOpts))
	cmd.AddCommand(newWorkspaceUnlockCommand(rootOpts))

	return cmd
}

func newWorkspaceListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List workspaces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			workspaces := s.doc.Workspaces()
			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(workspaces)
			}
			current := s.doc.Current().ID
			var b strings.Builder
			for _, ws := range workspaces {
				marker := " "
				if ws.ID == current {
					marker = "*"
				}
				suffix := ""
				if ws.Locked {
					suffix = "  [locked]"
				}
				fmt.Fprintf(&b, "%s %s  %s%s\n", marker, ws.ID, ws.Name, suffix)
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}

func newWorkspaceCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a workspace and switch to it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ws, err := s.doc.CreateWorkspace(cmd.Context(), args[0])
			if err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success(ws)
		},
	}
}

func newWorkspaceRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rename <id> <name>",
		Short:         "Rename a workspace",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ws, err := s.doc.RenameWorkspace(cmd.Context(), args[0], args[1])
			if err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success(ws)
		},
	}
}

func newWorkspaceRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:           "rm [id]",
		Short:         "Delete a workspace and its whole event history",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return NewExitError(ExitCommandError, "workspace id required (or --all)")
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if all {
				if err := s.doc.DeleteAllWorkspaces(ctx); err != nil {
					return domainExit(err)
				}
				return newFormatter(cmd, rootOpts).Success("all workspaces deleted")
			}
			if err := s.doc.DeleteWorkspace(ctx, args[0]); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("workspace deleted")
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every workspace")
	return cmd
}

func newWorkspaceResetCommand(rootOpts *RootOptions) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:           "reset",
		Short:         "Discard a workspace's content, keeping the workspace",
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
			if err := s.doc.ResetWorkspace(ctx); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("workspace reset")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	return cmd
}

func newWorkspaceLockCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:           "lock <id>",
		Short:         "Lock a workspace, encrypting its event history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.doc.Lock(cmd.Context(), args[0], password); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("workspace locked")
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "lock password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWorkspaceUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:           "unlock <id>",
		Short:         "Unlock a workspace, decrypting its event history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.doc.Unlock(cmd.Context(), args[0], password); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("workspace unlocked")
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "lock password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
