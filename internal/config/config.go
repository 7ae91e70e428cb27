// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tensorchat configuration.
type Config struct {
	Backend    BackendConfig    `toml:"backend"`
	Chat       ChatConfig       `toml:"chat"`
	Attachment AttachmentConfig `toml:"attachment"`
	Storage    StorageConfig    `toml:"storage"`
	Log        LogConfig        `toml:"log"`
	UI         UIConfig         `toml:"ui"`
	DevServer  DevServerConfig  `toml:"devserver"`
}

// BackendConfig describes how to reach the chat backend.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:5001
	BaseURL string `toml:"base_url"`
	// TimeoutSecs bounds each request; 0 means no client-side limit
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond paces outgoing requests; 0 disables pacing
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ChatConfig contains conversation behaviour.
type ChatConfig struct {
	// ReplyDelayMs is the pause before a received reply is shown
	ReplyDelayMs int `toml:"reply_delay_ms"`
	// Greeting opens each conversation
	Greeting string `toml:"greeting"`
	// NoGreeting suppresses the opening message
	NoGreeting bool `toml:"no_greeting"`
	// HistoryFile stores line-mode input history
	HistoryFile string `toml:"history_file"`
}

// AttachmentConfig contains document settings.
type AttachmentConfig struct {
	// MaxSize is a human readable limit such as "25MB"; empty means no limit
	MaxSize string `toml:"max_size"`
	// InboxDir is watched for PDFs to attach; empty disables the watcher
	InboxDir string `toml:"inbox_dir"`
	// PlaceholderName labels a document found on the backend at startup
	PlaceholderName string `toml:"placeholder_name"`
}

// StorageConfig contains transcript persistence settings.
type StorageConfig struct {
	TranscriptsDir string `toml:"transcripts_dir"`
	ArchivePath    string `toml:"archive_path"`
	AutoSave       bool   `toml:"autosave"`
	AutoSaveSecs   int    `toml:"autosave_secs"`
	MaxTranscripts int    `toml:"max_transcripts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File receives log output; "-" means stderr
	File string `toml:"file"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme          string `toml:"theme"`
	ShowTimestamps bool   `toml:"show_timestamps"`
	Compact        bool   `toml:"compact"`
}

// DevServerConfig configures the bundled reference backend.
type DevServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values. Paths are left
// empty and resolved against ConfigDir by SetDefaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:5001",
		},
		Chat: ChatConfig{
			ReplyDelayMs: 600,
			Greeting:     "Hello! How can I help you today?",
		},
		Attachment: AttachmentConfig{
			MaxSize:         "25MB",
			PlaceholderName: "Previously uploaded PDF",
		},
		Storage: StorageConfig{
			AutoSave:       true,
			AutoSaveSecs:   30,
			MaxTranscripts: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:          "auto",
			ShowTimestamps: true,
		},
		DevServer: DevServerConfig{
			Addr:           ":5001",
			AllowedOrigins: []string{"*"},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tensorchat configuration directory. TENSORCHAT_HOME
// overrides the default of ~/.tensorchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TENSORCHAT_HOME"); dir != "" {
		return util.ExpandHome(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tensorchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration from path, or from ConfigPath when path is
// empty, and applies .env and environment overrides. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, ".env")
}

// LoadWithEnvFile is Load with an explicit dotenv file. Variables already
// present in the environment are not replaced by the file.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// SetDefaults fills empty paths relative to ConfigDir.
func (c *Config) SetDefaults() error {
	needsDir := c.Chat.HistoryFile == "" || c.Storage.TranscriptsDir == "" ||
		c.Storage.ArchivePath == "" || c.Log.File == ""
	if !needsDir {
		return c.expandPaths()
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Chat.HistoryFile == "" {
		c.Chat.HistoryFile = filepath.Join(dir, "history")
	}
	if c.Storage.TranscriptsDir == "" {
		c.Storage.TranscriptsDir = filepath.Join(dir, "transcripts")
	}
	if c.Storage.ArchivePath == "" {
		c.Storage.ArchivePath = filepath.Join(dir, "archive.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "tensorchat.log")
	}
	return c.expandPaths()
}

func (c *Config) expandPaths() error {
	c.Chat.HistoryFile = util.ExpandHome(c.Chat.HistoryFile)
	c.Storage.TranscriptsDir = util.ExpandHome(c.Storage.TranscriptsDir)
	c.Storage.ArchivePath = util.ExpandHome(c.Storage.ArchivePath)
	c.Attachment.InboxDir = util.ExpandHome(c.Attachment.InboxDir)
	if c.Log.File != "-" {
		c.Log.File = util.ExpandHome(c.Log.File)
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// MaxSizeBytes parses Attachment.MaxSize. An empty value means no limit.
func (a AttachmentConfig) MaxSizeBytes() (int64, error) {
	if strings.TrimSpace(a.MaxSize) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(a.MaxSize)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path, or to ConfigPath when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# tensorchat configuration file\n")
	buf.WriteString("# Environment variables named TENSORCHAT_* override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Backend.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{"backend.base_url", err.Error()})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{"backend.base_url", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	case u.Host == "":
		errs = append(errs, ValidationError{"backend.base_url", "missing host"})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{"backend.timeout_secs", "must not be negative"})
	}
	if c.Backend.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{"backend.requests_per_second", "must not be negative"})
	}

	if c.Chat.ReplyDelayMs < 0 || c.Chat.ReplyDelayMs > 60000 {
		errs = append(errs, ValidationError{"chat.reply_delay_ms", "must be between 0 and 60000"})
	}

	if _, err := c.Attachment.MaxSizeBytes(); err != nil {
		errs = append(errs, ValidationError{"attachment.max_size", err.Error()})
	}

	if c.Storage.AutoSaveSecs < 0 {
		errs = append(errs, ValidationError{"storage.autosave_secs", "must not be negative"})
	}
	if c.Storage.MaxTranscripts < 0 {
		errs = append(errs, ValidationError{"storage.max_transcripts", "must not be negative"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level)})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("invalid theme %q, must be one of: auto, dark, light", c.UI.Theme)})
	}

	if c.DevServer.Addr == "" {
		errs = append(errs, ValidationError{"devserver.addr", "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TENSORCHAT_* environment variables:
//   - TENSORCHAT_BASE_URL: backend.base_url
//   - TENSORCHAT_TIMEOUT_SECS: backend.timeout_secs
//   - TENSORCHAT_REPLY_DELAY_MS: chat.reply_delay_ms
//   - TENSORCHAT_NO_GREETING: chat.no_greeting
//   - TENSORCHAT_MAX_UPLOAD_SIZE: attachment.max_size
//   - TENSORCHAT_INBOX_DIR: attachment.inbox_dir
//   - TENSORCHAT_AUTOSAVE: storage.autosave
//   - TENSORCHAT_LOG_LEVEL: log.level
//   - TENSORCHAT_LOG_FILE: log.file
//   - TENSORCHAT_DEVSERVER_ADDR: devserver.addr
//
// Values that fail to parse are ignored; Validate reports ranges.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TENSORCHAT_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("TENSORCHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("TENSORCHAT_REPLY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.ReplyDelayMs = n
		}
	}
	if v := os.Getenv("TENSORCHAT_NO_GREETING"); v != "" {
		c.Chat.NoGreeting = parseBool(v)
	}
	if v := os.Getenv("TENSORCHAT_MAX_UPLOAD_SIZE"); v != "" {
		c.Attachment.MaxSize = v
	}
	if v := os.Getenv("TENSORCHAT_INBOX_DIR"); v != "" {
		c.Attachment.InboxDir = v
	}
	if v := os.Getenv("TENSORCHAT_AUTOSAVE"); v != "" {
		c.Storage.AutoSave = parseBool(v)
	}
	if v := os.Getenv("TENSORCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TENSORCHAT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("TENSORCHAT_DEVSERVER_ADDR"); v != "" {
		c.DevServer.Addr = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load errors fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			_ = cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
