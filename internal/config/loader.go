package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the attendance service.
type Config struct {
	HTTPPort int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	SpreadsheetID    string
	SpreadsheetRange string
	GroupAMaxCount   int
	GroupBMaxCount   int

	CacheTTL        time.Duration
	UpstreamTimeout time.Duration

	StateBackend string
	StatePath    string

	AdminKeyHash       string
	CORSAllowedOrigins []string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values and malformed values
// are collected and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        3000,
		CacheTTL:        3 * time.Hour,
		UpstreamTimeout: 15 * time.Second,
		StateBackend:    "json",
		StatePath:       "state.json",
	}

	missing := make([]string, 0, 3)
	invalid := make([]string, 0, 2)

	if portValue := env("ATTENDANCE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ATTENDANCE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	required := []struct {
		key  string
		dest *string
	}{
		{"GOOGLE_CLIENT_ID", &cfg.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret},
		{"GOOGLE_CLIENT_REDIRECT_URI", &cfg.GoogleRedirectURI},
	}
	for _, field := range required {
		if value := env(field.key); value == "" {
			missing = append(missing, field.key)
		} else {
			*field.dest = value
		}
	}

	cfg.SpreadsheetID = env("SPREADSHEET_ID")
	cfg.SpreadsheetRange = env("SPREADSHEET_RANGE")

	counts := []struct {
		key  string
		dest *int
	}{
		{"GROUP_A_MAX_COUNT", &cfg.GroupAMaxCount},
		{"GROUP_B_MAX_COUNT", &cfg.GroupBMaxCount},
	}
	for _, field := range counts {
		value := env(field.key)
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			invalid = append(invalid, field.key)
			continue
		}
		*field.dest = n
	}

	durations := []struct {
		key  string
		dest *time.Duration
	}{
		{"CACHE_TTL", &cfg.CacheTTL},
		{"UPSTREAM_TIMEOUT", &cfg.UpstreamTimeout},
	}
	for _, field := range durations {
		value := env(field.key)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			invalid = append(invalid, field.key)
			continue
		}
		*field.dest = d
	}

	if backend := strings.ToLower(env("STATE_BACKEND")); backend != "" {
		if backend != "json" && backend != "sqlite" {
			invalid = append(invalid, "STATE_BACKEND")
		} else {
			cfg.StateBackend = backend
		}
	}
	if path := env("STATE_PATH"); path != "" {
		cfg.StatePath = path
	} else if cfg.StateBackend == "sqlite" {
		cfg.StatePath = "state.db"
	}

	cfg.AdminKeyHash = env("ADMIN_KEY_HASH")

	if origins := env("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
