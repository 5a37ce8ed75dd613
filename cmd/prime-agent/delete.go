package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a section from AGENTS.md",
	Long:  `Remove the named section from AGENTS.md. The skill file is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("delete", err)
		}
		return runDelete(cmd.Context(), ws, args[0])
	},
}

var deleteGloballyCmd = &cobra.Command{
	Use:   "delete-globally <name>",
	Short: "Remove a skill from AGENTS.md and the skills directory",
	Long: `Remove the named section from AGENTS.md and delete its skill file. Either one
may already be gone; the command fails only when neither exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("delete-globally", err)
		}
		return runDeleteGlobally(cmd.Context(), ws, args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteGloballyCmd)
}

func runDelete(ctx context.Context, ws *workspace.Workspace, name string) error {
	if err := ws.Delete(ctx, name); err != nil {
		return failed("delete", err)
	}

	presenter.Success(fmt.Sprintf("Removed section '%s' from %s", name, ws.AgentsPath()))
	return nil
}

func runDeleteGlobally(ctx context.Context, ws *workspace.Workspace, name string) error {
	if err := ws.DeleteGlobally(ctx, name); err != nil {
		return failed("delete-globally", err)
	}

	presenter.Success(fmt.Sprintf("Removed skill '%s' everywhere", name))
	return nil
}
