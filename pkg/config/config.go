// Package config resolves prime-agent settings. Each setting is taken from,
// highest priority first: a --config key:value override, its command-line
// flag, a PRIME_AGENT_* environment variable, the user config file, and a
// built-in default.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Setting keys. They double as flag names and config file keys.
const (
	KeySkillsDir  = "skills-dir"
	KeyAgentsPath = "agents-path"
	KeyPolicy     = "policy"
)

const (
	// EnvPrefix prefixes every environment variable, so skills-dir is read
	// from PRIME_AGENT_SKILLS_DIR.
	EnvPrefix = "PRIME_AGENT"

	DefaultSkillsDir  = "skills"
	DefaultAgentsPath = "AGENTS.md"
	DefaultPolicy     = "newest"

	appName        = "prime-agent"
	configFileName = "config.yaml"
	stateDirName   = "state"
)

// Settings are the resolved values the commands run with
type Settings struct {
	SkillsDir  string `mapstructure:"skills-dir"`
	AgentsPath string `mapstructure:"agents-path"`
	Policy     string `mapstructure:"policy"`
}

// NewViper returns a viper instance with defaults and environment lookup
// configured. Flags are bound by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySkillsDir, DefaultSkillsDir)
	v.SetDefault(KeyAgentsPath, DefaultAgentsPath)
	v.SetDefault(KeyPolicy, DefaultPolicy)
	return v
}

// LoadDotEnv loads a .env file from dir into the process environment.
// Variables that are already set win, and a missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to stat '%s'", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load '%s'", path)
	}
	return nil
}

// ReadFile merges the config file at path into v when it exists
func ReadFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to stat config '%s'", path)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config '%s'", path)
	}
	return nil
}

// Resolve unmarshals the settings from v and applies overrides on top.
// Path settings have "~" and "$HOME" expanded.
func Resolve(v *viper.Viper, overrides map[string]string) (*Settings, error) {
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if err := applyOverrides(&settings, overrides); err != nil {
		return nil, err
	}

	settings.SkillsDir = ExpandPath(settings.SkillsDir)
	settings.AgentsPath = ExpandPath(settings.AgentsPath)
	if settings.SkillsDir == "" {
		return nil, errors.New("skills directory not configured; use --skills-dir, PRIME_AGENT_SKILLS_DIR or the config file")
	}
	return &settings, nil
}

func applyOverrides(settings *Settings, overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           settings,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create override decoder")
	}

	if err := decoder.Decode(overrides); err != nil {
		return errors.Wrap(err, "failed to apply config overrides")
	}
	return nil
}

// ParseOverrides parses repeated --config key:value flags. The value may
// itself contain ':'.
func ParseOverrides(values []string) (map[string]string, error) {
	overrides := make(map[string]string, len(values))
	for _, value := range values {
		key, raw, ok := strings.Cut(value, ":")
		if !ok {
			return nil, errors.Errorf("invalid --config value '%s', expected key:value", value)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.Errorf("invalid --config value '%s', empty key", value)
		}
		overrides[key] = raw
	}
	return overrides, nil
}

// ExpandPath expands a leading "~" and any "$HOME" to the home directory.
// Paths are returned unchanged when the home directory is unknown.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, strings.TrimLeft(path[1:], "/"))
	}
	return strings.ReplaceAll(path, "$HOME", home)
}

// FilePath returns the user config file location: config.yaml in the
// prime-agent directory under the platform config dir ($XDG_CONFIG_HOME or
// ~/.config on Linux, ~/Library/Application Support on macOS).
func FilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate the user config directory")
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// StateFilePath returns where sync records its base for one pair of aggregate
// file and skills directory, next to the config file. Each pair gets its own
// file, named after a hash of both absolute paths.
func StateFilePath(agentsPath, skillsDir string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate the user config directory")
	}

	agents, err := filepath.Abs(agentsPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve '%s'", agentsPath)
	}
	skills, err := filepath.Abs(skillsDir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve '%s'", skillsDir)
	}

	sum := sha256.Sum256([]byte(agents + "\x00" + skills))
	return filepath.Join(dir, appName, stateDirName, hex.EncodeToString(sum[:8])+".yaml"), nil
}
