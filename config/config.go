package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from the environment, with
// an optional .env file loaded first.
type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"fexmine"`
	DBTimeZone string `env:"DB_TIMEZONE" envDefault:"Asia/Taipei"`

	// DataDir is the local root for downloaded report archives, one
	// subdirectory per report kind.
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// ArchiveMirrorDir backs the remote archive store. Empty disables
	// mirroring.
	ArchiveMirrorDir string `env:"ARCHIVE_MIRROR_DIR"`

	FutReportURL string `env:"FUT_RPT_URL" envDefault:"https://www.taifex.com.tw/DailyDownload/DailyDownload"`
	OptReportURL string `env:"OPT_RPT_URL" envDefault:"https://www.taifex.com.tw/DailyDownload/OptionsDailyDownload"`

	ExportDir string `env:"EXPORT_DIR" envDefault:"export"`

	APIPort     int    `env:"API_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9180"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBTimeZone)
}
