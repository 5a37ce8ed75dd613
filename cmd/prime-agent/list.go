package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills in the skills directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("list", err)
		}
		return runList(cmd.Context(), ws, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, ws *workspace.Workspace, out io.Writer) error {
	infos, err := ws.List(ctx)
	if err != nil {
		return failed("list", err)
	}
	if len(infos) == 0 {
		presenter.Info(fmt.Sprintf("No skills found in %s", ws.Store().Root()))
		return nil
	}

	presenter.Section(fmt.Sprintf("Skills in %s", ws.Store().Root()))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tPATH")
	for _, info := range infos {
		description := info.Description
		if description == "" {
			description = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, description, info.Path)
	}
	return w.Flush()
}
