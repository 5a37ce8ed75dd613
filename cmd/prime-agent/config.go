package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/prime-agent/pkg/config"
	"github.com/jingkaihe/prime-agent/pkg/presenter"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the user config file",
	Long: `Show the user config file, or read and write single keys with the get and
set subcommands. The file lives at <user config dir>/prime-agent/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := loadConfigFile()
		if err != nil {
			return failed("config", err)
		}
		printConfig(cmd.OutOrStdout(), f, "")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a value from the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadConfigFile()
		if err != nil {
			return failed("config get", err)
		}
		value, ok := f.Get(args[0])
		if !ok {
			return failed("config get", errors.Errorf("key '%s' is not set in %s", args[0], f.Path()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadConfigFile()
		if err != nil {
			return failed("config set", err)
		}
		return runConfigSet(cmd.OutOrStdout(), f, args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigSet saves one value. The resulting config is echoed unless the
// presenter is quiet.
func runConfigSet(out io.Writer, f *config.File, key, value string) error {
	f.Set(key, value)
	if err := f.Save(); err != nil {
		return failed("config set", err)
	}

	presenter.Success(fmt.Sprintf("Saved %s", f.Path()))
	if !presenter.IsQuiet() {
		printConfig(out, f, key)
	}
	return nil
}

func loadConfigFile() (*config.File, error) {
	path, err := config.FilePath()
	if err != nil {
		return nil, err
	}
	return config.LoadFile(path)
}

// printConfig shows the required skills-dir first, then every other key.
// The key named by updated is marked.
func printConfig(out io.Writer, f *config.File, updated string) {
	mark := func(key string) string {
		if key == updated {
			return " (updated)"
		}
		return ""
	}

	fmt.Fprintln(out, "Required:")
	if value, ok := f.Get(config.KeySkillsDir); ok {
		fmt.Fprintf(out, "  %s=%s%s\n", config.KeySkillsDir, value, mark(config.KeySkillsDir))
	} else {
		fmt.Fprintf(out, "  %s is not set (default %s)\n", config.KeySkillsDir, config.DefaultSkillsDir)
	}

	fmt.Fprintln(out, "Optional:")
	for _, key := range f.Keys() {
		if key == config.KeySkillsDir {
			continue
		}
		value, _ := f.Get(key)
		fmt.Fprintf(out, "  %s=%s%s\n", key, value, mark(key))
	}
}
