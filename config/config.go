package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Default endpoints for the Husqvarna authentication service and the
// Automower Connect API. Both are overridable so tests (and the odd
// staging setup) can point the client at a fake server.
const (
	DefaultTokenURL     = "https://api.authentication.husqvarnagroup.dev/v1/oauth2/token"
	DefaultAuthorizeURL = "https://api.authentication.husqvarnagroup.dev/v1/oauth2/authorize"
	DefaultAPIBaseURL   = "https://api.amc.husqvarna.dev"

	DefaultRedirectURI = "http://localhost/callback"
	DefaultScope       = "iam:read amc:read amc:control"
)

// Config represents the application configuration
type Config struct {
	Credentials Credentials
	API         APIConfig
	Poll        PollConfig
	Influx      InfluxConfig
	History     HistoryConfig
	Telegram    TelegramConfig

	// EnvFile is the path the dotenv values were loaded from. Rotated
	// refresh tokens are written back to this file.
	EnvFile string
}

// Credentials contains the four Husqvarna secrets
type Credentials struct {
	ClientID     string
	ClientSecret string
	AppKey       string
	RefreshToken string
	RedirectURI  string
	Scope        string
}

// APIConfig contains endpoint settings
type APIConfig struct {
	TokenURL     string
	AuthorizeURL string
	BaseURL      string
}

// PollConfig contains telemetry polling settings
type PollConfig struct {
	Seconds int
}

// InfluxConfig contains the optional InfluxDB v2 sink settings.
// An empty token disables the sink.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// HistoryConfig contains the optional local status-history settings.
// An empty path disables the store.
type HistoryConfig struct {
	DBPath string
}

// TelegramConfig contains the optional error-alert bot settings.
// An empty token disables alerts.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// MissingKeysError reports required credential keys that are absent
// from both the environment and the env file.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Load reads configuration from the environment, with the given dotenv
// file filling in any keys the environment does not set. A missing env
// file is not an error; the file may not exist until the first rotation
// or login writes it.
func Load(envFile string) (*Config, error) {
	fileVals, err := godotenv.Read(envFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		fileVals = map[string]string{}
	}

	get := func(key, defaultValue string) string {
		if v := os.Getenv(key); v != "" {
			return strings.TrimSpace(v)
		}
		if v := fileVals[key]; v != "" {
			return strings.TrimSpace(v)
		}
		return defaultValue
	}

	cfg := &Config{
		Credentials: Credentials{
			ClientID:     get("HUSQ_CLIENT_ID", ""),
			ClientSecret: get("HUSQ_CLIENT_SECRET", ""),
			AppKey:       get("HUSQ_APP_KEY", ""),
			RefreshToken: get("HUSQ_REFRESH_TOKEN", ""),
			RedirectURI:  get("HUSQ_REDIRECT_URI", DefaultRedirectURI),
			Scope:        strings.Trim(get("HUSQ_SCOPE", DefaultScope), `"`),
		},
		API: APIConfig{
			TokenURL:     get("HUSQ_TOKEN_URL", DefaultTokenURL),
			AuthorizeURL: get("HUSQ_AUTHORIZE_URL", DefaultAuthorizeURL),
			BaseURL:      get("HUSQ_API_BASE_URL", DefaultAPIBaseURL),
		},
		Poll: PollConfig{
			Seconds: getInt(get("POLL_SECONDS", ""), 30),
		},
		Influx: InfluxConfig{
			URL:    get("INFLUX_URL", "http://127.0.0.1:8086"),
			Token:  get("INFLUX_TOKEN", ""),
			Org:    get("INFLUX_ORG", "home"),
			Bucket: get("INFLUX_BUCKET", "automower"),
		},
		History: HistoryConfig{
			DBPath: get("HISTORY_DB_PATH", ""),
		},
		Telegram: TelegramConfig{
			Token:  get("TELEGRAM_TOKEN", ""),
			ChatID: getInt64(get("TELEGRAM_CHAT_ID", ""), 0),
		},
		EnvFile: envFile,
	}

	if cfg.Poll.Seconds < 1 {
		cfg.Poll.Seconds = 1
	}

	return cfg, nil
}

// ValidateCredentials checks that every secret needed for API calls is
// present. It reports all missing keys at once so the user can fix the
// env file in one pass.
func (c *Config) ValidateCredentials() error {
	var missing []string
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"HUSQ_CLIENT_ID", c.Credentials.ClientID},
		{"HUSQ_CLIENT_SECRET", c.Credentials.ClientSecret},
		{"HUSQ_APP_KEY", c.Credentials.AppKey},
		{"HUSQ_REFRESH_TOKEN", c.Credentials.RefreshToken},
	} {
		if kv.value == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

// ValidateLogin checks the subset of credentials the authorization-code
// flow needs. The refresh token is what login produces, so it is not
// required here.
func (c *Config) ValidateLogin() error {
	var missing []string
	if c.Credentials.ClientID == "" {
		missing = append(missing, "HUSQ_CLIENT_ID")
	}
	if c.Credentials.ClientSecret == "" {
		missing = append(missing, "HUSQ_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

func getInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	var intVal int
	if _, err := fmt.Sscanf(value, "%d", &intVal); err != nil {
		return defaultValue
	}
	return intVal
}

func getInt64(value string, defaultValue int64) int64 {
	if value == "" {
		return defaultValue
	}
	var intVal int64
	if _, err := fmt.Sscanf(value, "%d", &intVal); err != nil {
		return defaultValue
	}
	return intVal
}
