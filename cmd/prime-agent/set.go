package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

var setCmd = &cobra.Command{
	Use:   "set <name> <path>",
	Short: "Save a file as a skill",
	Long: `Save the file at <path> as the body of skill <name>. An existing skill with
the same name is overwritten.

Example:
  prime-agent set go-style ./notes/go-style.md`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("set", err)
		}
		return runSet(cmd.Context(), ws, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(ctx context.Context, ws *workspace.Workspace, name, path string) error {
	if err := ws.Set(ctx, name, path); err != nil {
		return failed("set", err)
	}

	presenter.Success(fmt.Sprintf("Saved skill '%s' to %s", name, ws.Store().Path(name)))
	return nil
}
