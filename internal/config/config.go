// Package config reads lettergen settings from the environment and an optional .env file.
package config

import (
	"github.com/joho/godotenv"
	"github.com/myrjola/lettergen/internal/envstruct"
	"github.com/myrjola/lettergen/internal/errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// SQLiteURL is the database file path or ":memory:".
	SQLiteURL     string `env:"LETTERGEN_SQLITE_URL" envDefault:"~/Documents/LetterGeneratorData/letter_requests.db"`
	TemplateDir   string `env:"LETTERGEN_TEMPLATE_DIR" envDefault:"./templates"`
	OutputDir     string `env:"LETTERGEN_OUTPUT_DIR" envDefault:"~/Documents/LetterGeneratorOutput"`
	LogDir        string `env:"LETTERGEN_LOG_DIR" envDefault:"~/Documents/LetterGeneratorLogs"`
	LogLevel      string `env:"LETTERGEN_LOG_LEVEL" envDefault:"info"`
	BusyTimeoutMS int    `env:"LETTERGEN_BUSY_TIMEOUT_MS" envDefault:"10000"`
	// AdminPassword seeds the admin account on first start.
	AdminPassword string `env:"LETTERGEN_ADMIN_PASSWORD" envDefault:"admin123"`
}

// BusyTimeout is BusyTimeoutMS as a duration.
func (c Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// Load populates a Config. Variables found by lookupEnv win over those in the dotenv files, and earlier dotenv files
// win over later ones. Missing dotenv files are skipped.
func Load(lookupEnv func(string) (string, bool), dotenvFiles ...string) (Config, error) {
	var fromFiles []map[string]string
	for _, path := range dotenvFiles {
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, errors.Wrap(err, "read dotenv file", slog.String("path", path))
		}
		fromFiles = append(fromFiles, values)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		for _, values := range fromFiles {
			if v, ok := values[key]; ok {
				return v, true
			}
		}
		return "", false
	}

	var cfg Config
	if err := envstruct.Populate(&cfg, lookup); err != nil {
		return Config{}, errors.Wrap(err, "populate config")
	}
	if cfg.BusyTimeoutMS < 0 {
		return Config{}, errors.Wrap(envstruct.ErrParse, "negative busy timeout",
			slog.Int("busy_timeout_ms", cfg.BusyTimeoutMS))
	}

	home, _ := os.UserHomeDir()
	for _, dir := range []*string{&cfg.SQLiteURL, &cfg.TemplateDir, &cfg.OutputDir, &cfg.LogDir} {
		*dir = expandHome(*dir, home)
	}
	return cfg, nil
}

func expandHome(path string, home string) string {
	if home == "" || !strings.HasPrefix(path, "~/") {
		return path
	}
	return filepath.Join(home, path[2:])
}
