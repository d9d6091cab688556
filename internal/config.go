package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultSecretSHA256 is the digest of the shared activation secret.
const DefaultSecretSHA256 = "8d6341258d8d4cb6a91899ca1f704721e59a634b1723f775e382b6e48069d753"

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Journal JournalConfig     `yaml:"journal"`
	Watch   WatchConfig       `yaml:"watch"`
	License LicenseConfig     `yaml:"license"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.License.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// CatalogConfig locates the category spreadsheets.
type CatalogConfig struct {
	DataDir    string `yaml:"data_dir"`
	ExportFile string `yaml:"export_file"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.ExportFile, validation.Required, validation.By(plainXLSX)),
	)
}

// JournalConfig holds the SQLite journal configuration.
// An empty Path disables the journal: moves are then not recoverable.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a journal path is configured.
func (c *JournalConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	if c.Path != "" && filepath.Ext(c.Path) == ".xlsx" {
		return validation.Errors{"path": validation.NewError("journal_xlsx", "must not be a spreadsheet")}
	}
	return nil
}

// WatchConfig tunes the data directory watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watcher configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(10*time.Millisecond), validation.Max(time.Minute)),
	)
}

// LicenseConfig holds the activation gate configuration.
type LicenseConfig struct {
	Enabled      bool   `yaml:"enabled"`
	MarkerPath   string `yaml:"marker_path"`
	SecretSHA256 string `yaml:"secret_sha256"`
	MaxAttempts  int    `yaml:"max_attempts"`
}

// Validate validates the license configuration.
func (c *LicenseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MarkerPath == "" {
		c.MarkerPath = DefaultMarkerPath()
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.MarkerPath, validation.Required),
		validation.Field(&c.SecretSHA256, validation.Required, is.Hexadecimal, validation.Length(64, 64)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
	)
}

// DefaultMarkerPath returns <user config dir>/Biblioteca/license.key, or a
// path relative to the working directory when no user config dir exists.
func DefaultMarkerPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".biblioteca", "license.key")
	}
	return filepath.Join(dir, "Biblioteca", "license.key")
}

func plainXLSX(value any) error {
	name, _ := value.(string)
	if filepath.Base(name) != name || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return validation.NewError("export_file", "must be a bare .xlsx file name")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Catalog: CatalogConfig{
			DataDir:    "./dados",
			ExportFile: "biblioteca_geral.xlsx",
		},
		Journal: JournalConfig{
			Path: "./dados/biblioteca.db",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		License: LicenseConfig{
			Enabled:      true,
			SecretSHA256: DefaultSecretSHA256,
			MaxAttempts:  3,
		},
	}
}
