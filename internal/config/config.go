// Package config reads the configuration of the backend from the environment.
//
// A .env file in the working directory is loaded first. Variables that are already
// set in the environment take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/salesops/target-planner/internal/planning"
)

var (
	ErrAPIURLNotSet     = errors.New("environment variable API_URL must be set")
	ErrAPIURLInvalid    = errors.New("environment variable API_URL must be a valid URL")
	ErrInvalidVersion   = errors.New("EDITABLE_VERSIONS must be a comma separated list of version numbers")
	ErrInvalidYearShift = errors.New("WEIGHT_YEAR_OFFSET must be an integer")
)

// Config is the configuration of the backend.
type Config struct {
	APIURL           *url.URL
	GinMode          string
	LogFormat        string
	DataDir          string
	CORSAllowOrigins []string
	EnablePprof      bool

	// Versions that can be edited. All other versions are read-only.
	EditableVersions []planning.VersionNo

	// Added to the scenario year to get the year weights are read from.
	WeightYearOffset int

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads the configuration.
func Load() (Config, error) {
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		GinMode:          getEnv("GIN_MODE", "release"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		DataDir:          getEnv("DATA_DIR", "data"),
		CORSAllowOrigins: strings.Fields(os.Getenv("CORS_ALLOW_ORIGINS")),
		EnablePprof:      os.Getenv("ENABLE_PPROF") == "true",
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "scenario-changes"),
	}

	apiURL, ok := os.LookupEnv("API_URL")
	if !ok {
		return Config{}, ErrAPIURLNotSet
	}

	u, err := url.Parse(apiURL)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrAPIURLInvalid, err)
	}
	cfg.APIURL = u

	cfg.EditableVersions, err = parseVersions(getEnv("EDITABLE_VERSIONS", "1"))
	if err != nil {
		return Config{}, err
	}

	cfg.WeightYearOffset = -1
	if offset := os.Getenv("WEIGHT_YEAR_OFFSET"); offset != "" {
		cfg.WeightYearOffset, err = strconv.Atoi(offset)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidYearShift, offset)
		}
	}

	return cfg, nil
}

// ManagerOptions returns the options for the planning manager.
func (c Config) ManagerOptions() []planning.Option {
	offset := c.WeightYearOffset
	return []planning.Option{
		planning.WithEditableVersions(c.EditableVersions...),
		planning.WithWeightYear(func(year int) int { return year + offset }),
	}
}

// DatabasePath returns the path of the sqlite database.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "planner.db")
}

func parseVersions(s string) ([]planning.VersionNo, error) {
	var versions []planning.VersionNo
	for _, part := range splitList(s) {
		v, err := strconv.Atoi(part)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, part)
		}
		versions = append(versions, planning.VersionNo(v))
	}

	return versions, nil
}

func splitList(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
