package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workspaceID string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a workspace as JSON",
		Long: `Export the workspace's full bullet forest and zoom state as a JSON
document, to stdout or to --output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.selectWorkspace(cmd.Context(), workspaceID); err != nil {
				return err
			}
			doc, err := s.doc.Export()
			if err != nil {
				return domainExit(err)
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return WrapExitError(ExitFailure, "failed to encode export", err)
			}
			data = append(data, '\n')
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return WrapExitError(ExitCommandError, "failed to write export file", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export into a workspace",
		Long: `Import a JSON export, replacing the workspace's entire tree and
re-seeding its event log. Pass "-" to read from stdin. Legacy exports
without a workspaceId are accepted; missing bullet fields are filled
with defaults.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read import file", err)
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
			if err := s.doc.Import(ctx, data); err != nil {
				return domainExit(err)
			}
			return newFormatter(cmd, rootOpts).Success("imported")
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id (default: first workspace)")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
