// Package config loads the connection and logging settings.
//
// Values come from one of:
//  1. the file named by --config or CONFIG_PATH (YAML or .env)
//  2. a .env file in the working directory, if there is one
//  3. the environment alone
//
// Environment variables (PGHOST, PGPORT, ...) override YAML values. A .env
// file is loaded into the environment, so its values win. Anything still
// unset takes its env-default.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aanand-mishra/students/internal/types"
)

// DefaultEnvFile is read when no config path is given and it exists.
const DefaultEnvFile = ".env"

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// LogFile, when set, sends logs to a rotating file instead of stderr.
	LogFile string `yaml:"log_file" env:"LOG_FILE"`

	Database `yaml:"database"`
}

// Database holds the store connection settings. The PG* names match what
// psql and the other libpq tools read, so one environment serves both.
type Database struct {
	Driver   string `yaml:"driver"   env:"DB_DRIVER"  env-default:"postgres" validate:"oneof=postgres sqlite3 mysql sqlserver"`
	Host     string `yaml:"host"     env:"PGHOST"     validate:"required_unless=Driver sqlite3"`
	Port     int    `yaml:"port"     env:"PGPORT"     env-default:"5432" validate:"min=1,max=65535"`
	User     string `yaml:"user"     env:"PGUSER"     validate:"required_unless=Driver sqlite3"`
	Password string `yaml:"password" env:"PGPASSWORD" validate:"required_unless=Driver sqlite3"`
	Name     string `yaml:"name"     env:"PGDATABASE" validate:"required_unless=Driver sqlite3"`
	SSLMode  string `yaml:"sslmode"  env:"PGSSLMODE"  env-default:"disable"`

	// Path is the database file for the sqlite3 driver.
	Path string `yaml:"path" env:"SQLITE_PATH" validate:"required_if=Driver sqlite3"`
}

// SafeString describes the connection with the password masked.
func (d Database) SafeString() string {
	if d.Driver == "sqlite3" {
		return fmt.Sprintf("driver=%s path=%s", d.Driver, d.Path)
	}
	return fmt.Sprintf("driver=%s host=%s:%d database=%s user=%s password=***",
		d.Driver, d.Host, d.Port, d.Name, d.User)
}

// Load reads the configuration. path may be empty, in which case
// CONFIG_PATH and then DefaultEnvFile are tried before falling back to
// the environment alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	switch {
	case path != "":
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	case fileExists(DefaultEnvFile):
		if err := cleanenv.ReadConfig(DefaultEnvFile, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", DefaultEnvFile, err)
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read environment: %w", err)
		}
	}

	if err := types.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
