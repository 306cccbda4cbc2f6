package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the back-office
// engine.
type Config struct {
	SQLiteDSN      string
	FlushDelay     time.Duration
	LocalThreshold float64
	LocalCurrency  string
}

// Load parses configuration values from the current process environment.
//
// Every field has a usable default; set values are validated and reported
// together so a misconfigured deployment fails with one complete message.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:      "file:backoffice.db?_foreign_keys=on",
		FlushDelay:     1200 * time.Millisecond,
		LocalThreshold: 1000,
		LocalCurrency:  "UZS",
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("BACKOFFICE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if delayValue := strings.TrimSpace(os.Getenv("BACKOFFICE_FLUSH_DELAY")); delayValue != "" {
		delay, err := time.ParseDuration(delayValue)
		if err != nil || delay <= 0 {
			invalid = append(invalid, "BACKOFFICE_FLUSH_DELAY")
		} else {
			cfg.FlushDelay = delay
		}
	}

	if thresholdValue := strings.TrimSpace(os.Getenv("BACKOFFICE_LOCAL_THRESHOLD")); thresholdValue != "" {
		threshold, err := strconv.ParseFloat(thresholdValue, 64)
		if err != nil || threshold <= 0 {
			invalid = append(invalid, "BACKOFFICE_LOCAL_THRESHOLD")
		} else {
			cfg.LocalThreshold = threshold
		}
	}

	if currency := strings.TrimSpace(os.Getenv("BACKOFFICE_LOCAL_CURRENCY")); currency != "" {
		cfg.LocalCurrency = strings.ToUpper(currency)
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
