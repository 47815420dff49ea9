// Package config resolves runtime configuration from the environment and
// the optional global config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/matsen/papersage/internal/anthropic"
	"github.com/matsen/papersage/internal/classify"
	"github.com/matsen/papersage/internal/paper"
)

// ErrConfiguration is returned when required configuration is missing or invalid.
var ErrConfiguration = errors.New("configuration error")

// Environment variables.
const (
	EnvAPIKey    = "ANTHROPIC_API_KEY"
	EnvVaultPath = "OBSIDIAN_VAULT_PATH"
	EnvModel     = "PAPERSAGE_MODEL"
	EnvMaxTokens = "PAPERSAGE_MAX_TOKENS"
	EnvBaseURL   = "ANTHROPIC_BASE_URL"
	EnvLogLevel  = "PAPERSAGE_LOG_LEVEL"
)

// Vault layout.
const (
	ResearchDir = "MyPage/Research"
	IntakeDir   = "downloads"
	PromptsDir  = "_prompts"
	StateDir    = ".papersage"
	LedgerFile  = "history.db"
)

// LogLevels lists the accepted log level names.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the resolved configuration for one run.
type Config struct {
	APIKey    string `json:"-"`
	VaultPath string `json:"vault_path"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	BaseURL   string `json:"base_url"`
	LogLevel  string `json:"log_level"`

	// Keywords replaces the built-in classifier keywords when non-empty.
	Keywords map[paper.Category][]string `json:"keywords,omitempty"`
}

// Load reads the global config file and resolves it against the process environment.
func Load() (*Config, error) {
	file, err := LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return Resolve(os.Getenv, file)
}

// Resolve builds a Config from getenv and file. Environment values win over
// file values; defaults fill whatever is left.
func Resolve(getenv func(string) string, file *GlobalConfig) (*Config, error) {
	if file == nil {
		file = &GlobalConfig{}
	}

	cfg := &Config{
		APIKey:    firstNonEmpty(getenv(EnvAPIKey), file.APIKey),
		VaultPath: ExpandPath(firstNonEmpty(getenv(EnvVaultPath), file.VaultPath)),
		Model:     firstNonEmpty(getenv(EnvModel), file.Model, anthropic.DefaultModel),
		MaxTokens: anthropic.DefaultMaxTokens,
		BaseURL:   firstNonEmpty(getenv(EnvBaseURL), anthropic.BaseURL),
		LogLevel:  strings.ToLower(firstNonEmpty(getenv(EnvLogLevel), "info")),
	}

	if v := getenv(EnvMaxTokens); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", ErrConfiguration, EnvMaxTokens, v)
		}
		cfg.MaxTokens = n
	} else if file.MaxTokens != 0 {
		cfg.MaxTokens = file.MaxTokens
	}

	keywords, err := file.CategoryKeywords()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	cfg.Keywords = keywords

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required.Error("is required (set "+EnvAPIKey+")")),
		validation.Field(&c.VaultPath,
			validation.Required.Error("is required (set "+EnvVaultPath+")"),
			validation.By(isDirectory),
		),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.LogLevel, validation.In(stringsToAny(LogLevels)...)),
	)
}

// KeywordSet returns the classifier keywords, falling back to the defaults.
func (c *Config) KeywordSet() (classify.KeywordSet, error) {
	if len(c.Keywords) == 0 {
		return classify.DefaultKeywords(), nil
	}
	ks, err := classify.NewKeywordSet(c.Keywords)
	if err != nil {
		return classify.KeywordSet{}, fmt.Errorf("%w: keywords: %v", ErrConfiguration, err)
	}
	return ks, nil
}

// ResearchPath returns the archive root inside the vault.
func (c *Config) ResearchPath() string {
	return filepath.Join(c.VaultPath, ResearchDir)
}

// IntakePath returns the directory new PDFs are picked up from.
func (c *Config) IntakePath() string {
	return filepath.Join(c.ResearchPath(), IntakeDir)
}

// PromptsPath returns the directory holding the prompt files.
func (c *Config) PromptsPath() string {
	return filepath.Join(c.VaultPath, PromptsDir)
}

// LedgerPath returns the path to the run history database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.ResearchPath(), StateDir, LedgerFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

func isDirectory(value interface{}) error {
	path, _ := value.(string)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringsToAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
