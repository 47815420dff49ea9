package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matsen/papersage/internal/paper"
)

// GlobalConfig represents configuration stored in ~/.config/papersage/config.yml.
// Every field is optional; environment variables take precedence.
type GlobalConfig struct {
	APIKey    string              `yaml:"api_key,omitempty"`
	VaultPath string              `yaml:"vault_path,omitempty"`
	Model     string              `yaml:"model,omitempty"`
	MaxTokens int                 `yaml:"max_tokens,omitempty"`
	Keywords  map[string][]string `yaml:"keywords,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "papersage"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/papersage/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}
	return ReadGlobalConfig(path)
}

// ReadGlobalConfig parses the config file at path.
// A missing file yields an empty config.
func ReadGlobalConfig(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	return &cfg, nil
}

// CategoryKeywords converts the keywords section to per-category lists.
// It returns nil when the section is absent.
func (g *GlobalConfig) CategoryKeywords() (map[paper.Category][]string, error) {
	if len(g.Keywords) == 0 {
		return nil, nil
	}
	out := make(map[paper.Category][]string, len(g.Keywords))
	for name, words := range g.Keywords {
		c, err := paper.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("keywords: %w", err)
		}
		out[c] = words
	}
	return out, nil
}

// HelpfulConfigMessage explains how to supply the required settings.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Set %s and %s in the environment or a .env file,
or create %s:
  mkdir -p %s
  cat > %s <<EOF
  api_key: sk-ant-...
  vault_path: ~/Obsidian/Vault
  EOF`,
		EnvAPIKey, EnvVaultPath,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
