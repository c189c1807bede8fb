// ABOUTME: Runtime configuration from environment variables and a .env file
// ABOUTME: Process environment wins over the file; credentials checked per command
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ProxiMyti/proximyti-monday-integration/board"
	"github.com/ProxiMyti/proximyti-monday-integration/db"
)

// ErrMissing means a setting a command needs is not configured.
var ErrMissing = errors.New("missing required configuration")

// Mirror drivers.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
)

type Config struct {
	MondayToken   string
	MondayAPIURL  string
	BoardID       string
	WebhookSecret string

	MirrorDriver string
	SupabaseURL  string
	SupabaseKey  string
	MirrorDSN    string

	Port            string
	SyncDelay       time.Duration
	WebhookDebounce time.Duration
	HTTPTimeout     time.Duration

	LedgerPath     string
	ZonePolicyFile string

	LogLevel string
	LogJSON  bool
}

// Load reads envFile when it exists, then applies the process
// environment over it. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	file := map[string]string{}
	if _, err := os.Stat(envFile); err == nil {
		file, err = godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		MondayToken:    get("MONDAY_TOKEN", ""),
		MondayAPIURL:   get("MONDAY_API_URL", board.DefaultAPIURL),
		BoardID:        get("MONDAY_BOARD_ID", ""),
		WebhookSecret:  get("MONDAY_WEBHOOK_SECRET", ""),
		MirrorDriver:   strings.ToLower(get("MIRROR_DRIVER", DriverPostgREST)),
		SupabaseURL:    get("SUPABASE_URL", ""),
		SupabaseKey:    get("SUPABASE_KEY", ""),
		MirrorDSN:      get("MIRROR_DSN", ""),
		Port:           get("PORT", "3000"),
		LedgerPath:     get("LEDGER_PATH", db.DefaultPath()),
		ZonePolicyFile: get("ZONE_POLICY_FILE", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LogJSON, err = parseBool("LOG_JSON", get("LOG_JSON", "false")); err != nil {
		return nil, err
	}
	if cfg.SyncDelay, err = parseDuration("SYNC_DELAY", get("SYNC_DELAY", "300ms")); err != nil {
		return nil, err
	}
	if cfg.WebhookDebounce, err = parseDuration("WEBHOOK_DEBOUNCE", get("WEBHOOK_DEBOUNCE", "2s")); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", get("HTTP_TIMEOUT", "30s")); err != nil {
		return nil, err
	}

	if cfg.MirrorDriver != DriverPostgREST && cfg.MirrorDriver != DriverPostgres {
		return nil, fmt.Errorf("invalid MIRROR_DRIVER %q: want %s or %s", cfg.MirrorDriver, DriverPostgREST, DriverPostgres)
	}

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return d, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// RequireBoard checks the board credentials are set.
func (c *Config) RequireBoard() error {
	return requireSet(map[string]string{
		"MONDAY_TOKEN":    c.MondayToken,
		"MONDAY_BOARD_ID": c.BoardID,
	})
}

// RequireMirror checks the settings for the configured mirror driver.
func (c *Config) RequireMirror() error {
	if c.MirrorDriver == DriverPostgres {
		return requireSet(map[string]string{"MIRROR_DSN": c.MirrorDSN})
	}
	return requireSet(map[string]string{
		"SUPABASE_URL": c.SupabaseURL,
		"SUPABASE_KEY": c.SupabaseKey,
	})
}

func requireSet(values map[string]string) error {
	var missing []string
	for key, v := range values {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
}
