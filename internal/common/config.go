// Package common provides shared configuration and run accounting for the
// solrad batch tools.
package common

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds common configuration for all applications. Values come
// from the environment (optionally seeded from a .env file) and act as
// defaults behind each tool's flags.
type Config struct {
	CAMSBaseURL        string
	CAMSToken          string
	CAMSDataset        string
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
}

// DefaultConfig returns configuration with sensible defaults. A .env file
// in the working directory is loaded first if present.
func DefaultConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		CAMSBaseURL:        getEnv("CAMS_BASE_URL", "https://api.atmosphere.copernicus.eu/solar-radiation/v1/timeseries"),
		CAMSToken:          getEnv("CAMS_TOKEN", ""),
		CAMSDataset:        getEnv("CAMS_DATASET", "cams-solar-radiation-timeseries"),
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solrad"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            getEnv("SOLRAD_DATA_DIR", "solar_data_output"),
	}
}

// RawDataDir returns the directory for raw 1-minute archives.
func (c *Config) RawDataDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ProcessedDataDir returns the directory for aggregated 10-minute tables.
func (c *Config) ProcessedDataDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// ClickHouseAddr returns the native-protocol host:port address.
func (c *Config) ClickHouseAddr() string {
	return c.ClickHouseHost + ":" + strconv.Itoa(c.ClickHousePort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
