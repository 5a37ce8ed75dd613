package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/config"
	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/reconcile"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

// SyncConfig holds the options of the sync command
type SyncConfig struct {
	Diff bool
}

// NewSyncConfig creates a SyncConfig with default values
func NewSyncConfig() *SyncConfig {
	return &SyncConfig{}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile AGENTS.md with the skills directory",
	Long: `Bring AGENTS.md and the skills directory to a consistent state.

Skills missing from AGENTS.md are appended as sections, sections without a
skill file are written out as skills, and when both exist with different
content the conflict policy picks the winner:

  newest  the side modified last wins (default)
  skill   the skill file wins
  agents  the AGENTS.md section wins
  fail    nothing is written and the command fails`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ws, err := newWorkspace(cmd)
		if err != nil {
			return failed("sync", err)
		}
		return runSync(cmd.Context(), ws, getSyncConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewSyncConfig()
	syncCmd.Flags().String(config.KeyPolicy, "", "Conflict policy: "+strings.Join(policyNames(), ", "))
	syncCmd.Flags().Bool("diff", defaults.Diff, "Show the diff of every conflicting skill")

	v.BindPFlag(config.KeyPolicy, syncCmd.Flags().Lookup(config.KeyPolicy))
	rootCmd.AddCommand(syncCmd)
}

func getSyncConfigFromFlags(cmd *cobra.Command) *SyncConfig {
	cfg := NewSyncConfig()
	if diff, err := cmd.Flags().GetBool("diff"); err == nil {
		cfg.Diff = diff
	}
	return cfg
}

func policyNames() []string {
	names := make([]string, 0, len(reconcile.Policies))
	for _, p := range reconcile.Policies {
		names = append(names, string(p))
	}
	return names
}

func runSync(ctx context.Context, ws *workspace.Workspace, cfg *SyncConfig) error {
	report, err := ws.Sync(ctx)
	if report != nil {
		printSyncReport(report, cfg)
	}
	if err != nil {
		return failed("sync", err)
	}

	if !report.AgentsWritten && len(report.SkillsWritten) == 0 {
		presenter.Success("Already in sync")
		return nil
	}
	presenter.Success(fmt.Sprintf("Synced %s with %s", ws.AgentsPath(), ws.Store().Root()))
	return nil
}

func printSyncReport(report *workspace.SyncReport, cfg *SyncConfig) {
	s := report.Summary
	printNames("Sections added", s.SectionsAdded)
	printNames("Sections updated", s.SectionsUpdated)
	printNames("Skills added", s.SkillsAdded)
	printNames("Skills updated", s.SkillsUpdated)

	for _, c := range s.Conflicts {
		presenter.Warning(fmt.Sprintf("'%s' differs between the skill and AGENTS.md, kept the %s version", c.Name, c.Winner))
		if cfg.Diff {
			presenter.Diff(c.Diff)
		}
	}

	if len(report.SkillsFailed) > 0 {
		presenter.Warning("Failed to write: " + strings.Join(report.SkillsFailed, ", "))
	}
}

func printNames(label string, names []string) {
	if len(names) == 0 {
		return
	}
	presenter.Info(fmt.Sprintf("%s: %s", label, strings.Join(names, ", ")))
}
