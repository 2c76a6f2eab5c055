// Package config handles loading and parsing application configuration.
// It supports these sources (later ones win):
//  1. Defaults declared in the struct tags below
//  2. A YAML file chosen by CONFIG_PATH or --config (optional)
//  3. A .env file in the working directory (optional)
//  4. Real environment variables
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	Storage Storage `yaml:"storage"`

	// HTTPServer is embedded (not a pointer) so its fields are accessible
	// directly on Config:  cfg.HTTPServer.Addr  or after promotion cfg.Addr
	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite" validate:"oneof=sqlite mongo"`

	// Path is the filesystem path to the SQLite .db file.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/students.db"`

	// URI is the MongoDB connection string.
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017/student_db"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"student_db"`

	// Timeout bounds connecting and every individual storage operation.
	Timeout time.Duration `yaml:"timeout" env:"STORAGE_TIMEOUT" env-default:"10s" validate:"gt=0"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the full TCP address, e.g. "localhost:8082". When empty the
	// server listens on every interface at Port.
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR"`
	Port string `yaml:"port" env:"PORT" env-default:"3000"`
}

// ListenAddr returns the address the HTTP server should bind.
func (s HTTPServer) ListenAddr() string {
	if s.Addr != "" {
		return s.Addr
	}
	return net.JoinHostPort("", s.Port)
}

// Load reads configuration from the optional YAML file at path, the
// optional .env file and the environment, then validates it.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: read .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config.Load: config file %s: %w", path, err)
		}
		// cleanenv.ReadConfig reads the YAML file, then applies env
		// overrides and env-default values.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to panic/fatal on failure. Callers do not need to
// check a returned error: if this function returns, the config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/students-api --config=config/local.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	// Neither source is required: without a file the environment and the
	// defaults above are enough to start.
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}
