// Package config provides configuration loading and structs for the tenderlens server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Inbox provider names.
const (
	InboxGmail   = "gmail"
	InboxMailbox = "mailbox"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Inbox   InboxConfig   `yaml:"inbox"`
	LLM     LLMConfig     `yaml:"llm"`
	Extract ExtractConfig `yaml:"extract"`
	Table   TableConfig   `yaml:"table"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the report database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// InboxConfig selects and configures the inbox collaborator.
// Credential material is opaque: either a file path or an inline JSON string, the latter
// usually injected from the environment as ${VAR}.
type InboxConfig struct {
	Provider        string `yaml:"provider"`
	MaxResults      int    `yaml:"max_results"`
	Query           string `yaml:"query"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
	TokenFile       string `yaml:"token_file"`
	TokenJSON       string `yaml:"token_json"`
	MailboxPath     string `yaml:"mailbox_path"`
}

// LLMConfig holds the streaming chat completion provider settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
}

// ExtractConfig holds text extraction settings.
type ExtractConfig struct {
	OCRLanguage string `yaml:"ocr_language"`
	// MinDigitalChars is the stripped length under which digital PDF text is considered a
	// failed extraction and the OCR fallback runs.
	MinDigitalChars int    `yaml:"min_digital_chars"`
	RenderDPI       int    `yaml:"render_dpi"`
	PdftoppmPath    string `yaml:"pdftoppm_path"`
}

// TableConfig holds summary table settings.
type TableConfig struct {
	// KeepDuplicates keeps repeated list items under a key instead of dropping exact repeats.
	KeepDuplicates bool `yaml:"keep_duplicates"`
}

// WatchConfig holds drop-folder settings. The watcher is disabled when Directory is empty.
type WatchConfig struct {
	Directory       string `yaml:"directory"`
	OutputDirectory string `yaml:"output_directory"`
}

// Enabled reports whether a drop folder is configured.
func (w *WatchConfig) Enabled() bool {
	return w.Directory != ""
}

// Load reads and parses the config file at path, expands secrets and paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	expandSecrets(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Inbox.CredentialsFile = expandPath(cfg.Inbox.CredentialsFile, configDir)
	cfg.Inbox.TokenFile = expandPath(cfg.Inbox.TokenFile, configDir)
	cfg.Inbox.MailboxPath = expandPath(cfg.Inbox.MailboxPath, configDir)
	cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	cfg.Watch.OutputDirectory = expandPath(cfg.Watch.OutputDirectory, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GmailCredentials returns the OAuth client and token JSON, preferring inline values over files.
func (c *InboxConfig) GmailCredentials() (clientJSON, tokenJSON []byte, err error) {
	clientJSON, err = inlineOrFile(c.CredentialsJSON, c.CredentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("inbox credentials: %w", err)
	}
	tokenJSON, err = inlineOrFile(c.TokenJSON, c.TokenFile)
	if err != nil {
		return nil, nil, fmt.Errorf("inbox token: %w", err)
	}
	return clientJSON, tokenJSON, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, fmt.Errorf("neither inline JSON nor file path configured")
	}
	return os.ReadFile(path)
}

// expandSecrets substitutes ${VAR} references in secret-bearing fields from the environment.
func expandSecrets(cfg *Config) {
	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	cfg.Inbox.CredentialsJSON = os.ExpandEnv(cfg.Inbox.CredentialsJSON)
	cfg.Inbox.TokenJSON = os.ExpandEnv(cfg.Inbox.TokenJSON)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
