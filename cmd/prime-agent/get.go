package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

var getCmd = &cobra.Command{
	Use:   "get <name1,name2,...>",
	Short: "Build AGENTS.md from the named skills",
	Long: `Build AGENTS.md from exactly the named skills, in the given order. The
existing AGENTS.md is replaced, not merged.

Names may be comma separated, spread over several arguments, or glob patterns
matched against the skills directory.

Examples:
  prime-agent get go-style,testing
  prime-agent get go-style testing
  prime-agent get 'go-*'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("get", err)
		}
		return runGet(cmd.Context(), ws, args)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(ctx context.Context, ws *workspace.Workspace, args []string) error {
	names, err := ws.ExpandNames(args)
	if err != nil {
		return failed("get", err)
	}
	if err := ws.Get(ctx, names); err != nil {
		return failed("get", err)
	}

	presenter.Success(fmt.Sprintf("Wrote %s with %d skill(s): %s", ws.AgentsPath(), len(names), strings.Join(names, ", ")))
	return nil
}
