package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/config"
	"github.com/jingkaihe/prime-agent/pkg/logger"
	"github.com/jingkaihe/prime-agent/pkg/presenter"
	"github.com/jingkaihe/prime-agent/pkg/reconcile"
	"github.com/jingkaihe/prime-agent/pkg/skills"
	"github.com/jingkaihe/prime-agent/pkg/version"
	"github.com/jingkaihe/prime-agent/pkg/workspace"
)

const appName = "prime-agent"

// v holds flag, environment and config file values for every command.
var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Keep AGENTS.md and a directory of skills in sync",
	Long: `prime-agent assembles AGENTS.md from reusable instruction snippets ("skills"),
each stored as <skills-dir>/<name>/SKILL.md, and keeps both sides in sync when
either one is edited.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeySkillsDir, "", "Skills directory (env PRIME_AGENT_SKILLS_DIR, default ./skills)")
	flags.String(config.KeyAgentsPath, "", "Aggregate file to manage (default AGENTS.md)")
	flags.StringArray("config", nil, "Override a setting as key:value (repeatable)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-format", "fmt", "Log format (fmt or json)")
	flags.BoolP("quiet", "q", false, "Only print errors")

	v.BindPFlag(config.KeySkillsDir, flags.Lookup(config.KeySkillsDir))
	v.BindPFlag(config.KeyAgentsPath, flags.Lookup(config.KeyAgentsPath))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_format", flags.Lookup("log-format"))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}

// setup runs before every command: it loads .env and the config file,
// configures logging and prints the banner.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv("."); err != nil {
		return err
	}

	if err := logger.Configure(v.GetString("log_level"), v.GetString("log_format")); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	presenter.SetQuiet(quiet)
	presenter.Banner(appName, version.Get().Version)

	path, err := config.FilePath()
	if err != nil {
		logger.G(cmd.Context()).WithError(err).Debug("no user config directory")
		return nil
	}
	return config.ReadFile(v, path)
}

func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	raw, _ := cmd.Flags().GetStringArray("config")
	overrides, err := config.ParseOverrides(raw)
	if err != nil {
		return nil, err
	}
	return config.Resolve(v, overrides)
}

// newWorkspace builds the workspace the skill commands operate on.
func newWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}

	policy, err := reconcile.ParsePolicy(settings.Policy)
	if err != nil {
		return nil, err
	}

	logger.G(cmd.Context()).
		WithField("skills_dir", settings.SkillsDir).
		WithField("agents_path", settings.AgentsPath).
		WithField("policy", policy).
		Debug("resolved settings")

	opts := []workspace.Option{workspace.WithPolicy(policy)}
	if statePath, err := config.StateFilePath(settings.AgentsPath, settings.SkillsDir); err == nil {
		opts = append(opts, workspace.WithStateFile(statePath))
	} else {
		logger.G(cmd.Context()).WithError(err).Warn("sync state disabled")
	}

	store := skills.NewStore(settings.SkillsDir, skills.WithCreateRoot())
	return workspace.New(store, settings.AgentsPath, opts...), nil
}

func failed(operation string, err error) error {
	return errors.Wrapf(err, "%s failed", operation)
}
