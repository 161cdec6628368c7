package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Sync      SyncConfig      `yaml:"sync"`
	Providers ProvidersConfig `yaml:"providers"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Logging   LoggingConfig   `yaml:"logging"`
	Aliases   AliasesConfig   `yaml:"aliases"`
}

type ServiceConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type SyncConfig struct {
	Interval        time.Duration `yaml:"interval"`
	Sports          []string      `yaml:"sports"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	MatchCutoff     int           `yaml:"match_cutoff"`     // minimum IdentityMatcher confidence to merge (0-100)
	TimeTolerance   time.Duration `yaml:"time_tolerance"`   // kickoff-time window before confidence is penalized
	StalenessWindow time.Duration `yaml:"staleness_window"` // quotes older than this are excluded from consensus
}

type ProvidersConfig struct {
	// Priority is the cascade order for odds providers, cheapest first.
	// Reordering or removing a provider is a config change, not a code change.
	Priority     []string           `yaml:"priority"`
	ESPN         ESPNConfig         `yaml:"espn"`
	OddsAPI      OddsAPIConfig      `yaml:"oddsapi"`
	SportsDataIO SportsDataIOConfig `yaml:"sportsdataio"`
}

type ESPNConfig struct {
	BaseURL string `yaml:"base_url"`
}

type OddsAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // falls back to ODDS_API_KEY env var; empty disables the provider
	Regions string `yaml:"regions"`
	Markets string `yaml:"markets"`
}

type SportsDataIOConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // falls back to SPORTSDATA_API_KEY env var; empty disables the provider
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables the quote cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NotifierConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"` // falls back to TELEGRAM_BOT_TOKEN env var
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	CooldownMinutes  int    `yaml:"cooldown_minutes"` // min minutes between repeat alerts for the same key
}

type LoggingConfig struct {
	Level    string `yaml:"level"`     // debug|info|warn|error
	JSONPath string `yaml:"json_path"` // optional file for a JSON copy of the log stream
}

type AliasesConfig struct {
	Path string `yaml:"path"` // optional versioned team-alias table (yaml)
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Service.ReadHeaderTimeout <= 0 {
		c.Service.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = time.Minute
	}
	if c.Sync.ProviderTimeout <= 0 {
		c.Sync.ProviderTimeout = 10 * time.Second
	}
	if c.Sync.MatchCutoff <= 0 {
		c.Sync.MatchCutoff = 85
	}
	if c.Sync.TimeTolerance <= 0 {
		c.Sync.TimeTolerance = 2 * time.Hour
	}
	if c.Sync.StalenessWindow <= 0 {
		c.Sync.StalenessWindow = 15 * time.Minute
	}
	if len(c.Providers.Priority) == 0 {
		c.Providers.Priority = []string{"oddsapi", "sportsdataio", "espn"}
	}
	if c.Providers.ESPN.BaseURL == "" {
		c.Providers.ESPN.BaseURL = "https://site.api.espn.com/apis/site/v2/sports"
	}
	if c.Providers.OddsAPI.BaseURL == "" {
		c.Providers.OddsAPI.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if c.Providers.OddsAPI.Regions == "" {
		c.Providers.OddsAPI.Regions = "us"
	}
	if c.Providers.OddsAPI.Markets == "" {
		c.Providers.OddsAPI.Markets = "h2h,spreads,totals"
	}
	if c.Providers.SportsDataIO.BaseURL == "" {
		c.Providers.SportsDataIO.BaseURL = "https://api.sportsdata.io/v3"
	}
	if c.Notifier.CooldownMinutes <= 0 {
		c.Notifier.CooldownMinutes = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv fills API keys from the environment when the config file
// leaves them empty. A key that is absent in both places silently
// disables that provider; the cascade degrades instead of erroring.
func (c *Config) applyEnv() {
	if c.Providers.OddsAPI.APIKey == "" {
		c.Providers.OddsAPI.APIKey = os.Getenv("ODDS_API_KEY")
	}
	if c.Providers.SportsDataIO.APIKey == "" {
		c.Providers.SportsDataIO.APIKey = os.Getenv("SPORTSDATA_API_KEY")
	}
	if c.Notifier.TelegramBotToken == "" {
		c.Notifier.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.Postgres.DSN == "" {
		c.Postgres.DSN = os.Getenv("POSTGRES_DSN")
	}
}
