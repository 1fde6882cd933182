package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMalformedInput marks an unparseable config or pricing document. Callers
// degrade to defaults rather than aborting.
var ErrMalformedInput = errors.New("malformed input")

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "CCTRACK_CONFIG"

// EnvFile names the environment variable pointing at an optional .env file.
const EnvFile = "CCTRACK_ENV_FILE"

// Config holds all cctrack configuration.
type Config struct {
	DataDir      string          `yaml:"data_dir"`
	Store        StoreConfig     `yaml:"store"`
	RegistryPath string          `yaml:"registry_path"`
	PricingPath  string          `yaml:"pricing_path"`
	Pricing      *PricingConfig  `yaml:"pricing"`
	Expenses     ExpensesConfig  `yaml:"expenses"`
	Dashboard    DashboardConfig `yaml:"dashboard"`
	Logging      LoggingConfig   `yaml:"logging"`
}

// StoreConfig selects the usage log backend.
// Driver is "sqlite" (default) or "csv".
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	CSVPath    string `yaml:"csv_path"`
}

// ExpensesConfig lists the file names searched under <location>/.claude/.
type ExpensesConfig struct {
	Files []string `yaml:"files"`
}

// DashboardConfig controls README generation and publishing.
type DashboardConfig struct {
	RepoDir     string        `yaml:"repo_dir"`
	Readme      string        `yaml:"readme"`
	Publish     bool          `yaml:"publish"`
	UpdateOnLog bool          `yaml:"update_on_log"`
	Paths       []string      `yaml:"paths"`
	AuthorName  string        `yaml:"author_name"`
	AuthorEmail string        `yaml:"author_email"`
	Timeout     time.Duration `yaml:"timeout"`
	Debounce    time.Duration `yaml:"debounce"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible defaults rooted at ~/claude-tracking.
func Default() *Config {
	dataDir := "claude-tracking"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, "claude-tracking")
	}
	cfg := &Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Expenses: ExpensesConfig{
			Files: []string{"billing.json", "billing.yaml", "billing.yml", "billing.toml"},
		},
		Dashboard: DashboardConfig{
			Readme:      "README.md",
			AuthorName:  "cctrack",
			AuthorEmail: "cctrack@localhost",
			Timeout:     30 * time.Second,
			Debounce:    2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
	cfg.derive()
	return cfg
}

// derive fills unset paths relative to DataDir.
func (c *Config) derive() {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(c.DataDir, "sessions.db")
	}
	if c.Store.CSVPath == "" {
		c.Store.CSVPath = filepath.Join(c.DataDir, "sessions.csv")
	}
	if c.RegistryPath == "" {
		c.RegistryPath = filepath.Join(c.DataDir, "projects.json")
	}
	if c.PricingPath == "" {
		c.PricingPath = filepath.Join(c.DataDir, "pricing.json")
	}
	if c.Dashboard.RepoDir == "" {
		c.Dashboard.RepoDir = c.DataDir
	}
	if len(c.Dashboard.Paths) == 0 {
		c.Dashboard.Paths = []string{c.Dashboard.Readme, filepath.Base(c.RegistryPath)}
		if c.Store.Driver == "csv" {
			c.Dashboard.Paths = append(c.Dashboard.Paths, filepath.Base(c.Store.CSVPath))
		}
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	// Derived paths must follow a data_dir override, so reset them first.
	cfg.Store.SQLitePath, cfg.Store.CSVPath = "", ""
	cfg.RegistryPath, cfg.PricingPath = "", ""
	cfg.Dashboard.RepoDir, cfg.Dashboard.Paths = "", nil
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", ErrMalformedInput, err)
	}
	cfg.derive()

	return cfg, nil
}

// Resolve loads the optional .env file, then the config named by path, the
// CCTRACK_CONFIG variable, or the defaults, in that order.
func Resolve(path string) (*Config, error) {
	loadEnvFile()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func loadEnvFile() {
	path := os.Getenv(EnvFile)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		path = filepath.Join(home, ".cctrack.env")
	}
	// Missing .env files are fine; existing variables win.
	_ = godotenv.Load(path)
}
