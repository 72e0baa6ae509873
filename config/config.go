package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	HTTPTimeoutSec int

	RawDataDir      string // downloaded source files, overwritten on refresh
	ArchiveDir      string // versioned snapshots, never mutated
	OutputDir       string // collated and analysed output
	MPListFile      string // one member ID per line
	VotesFile       string // tracked votes (YAML)
	DonorsFile      string // donor name/identifier -> category -> sentence
	LastUpdatesFile string // refresh bookkeeping across acquisition runs
	DataRefFile     string // presentation-layer reference, stamped per run
	LogFile         string
	SummaryPath     string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "mpwatch"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "mpwatch123"),
		PostgresDB:       getEnv("POSTGRES_DB", "mp_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 10),

		RawDataDir:      getEnv("RAW_DATA_DIR", "./data_raw"),
		ArchiveDir:      getEnv("ARCHIVE_DIR", "./data_archive"),
		OutputDir:       getEnv("OUTPUT_DIR", "./data"),
		MPListFile:      getEnv("MP_LIST_FILE", "./mp_ids.txt"),
		VotesFile:       getEnv("VOTES_FILE", "./votes.yaml"),
		DonorsFile:      getEnv("DONORS_FILE", "./donor_categories.csv"),
		LastUpdatesFile: getEnv("LAST_UPDATES_FILE", "./data_raw/last_updates.json"),
		DataRefFile:     getEnv("DATA_REF_FILE", "./data/data_ref.json"),
		LogFile:         getEnv("LOG_FILE", "./scrapers.log"),
		SummaryPath:     getEnv("SUMMARY_PATH", "./data/mp_data_summary.csv"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
