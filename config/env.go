package config

import (
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Overrides are read from flags and the environment and win over the YAML file.
type Overrides struct {
	ConfigPath string `long:"config" env:"CONFIG_PATH" description:"Path to the YAML config file"`

	ParcelWebhookURL string `long:"parcel-webhook-url" env:"PARCEL_TRACK_DISCORD_URL" description:"Discord webhook for parcel alerts and digests"`
	StockWebhookURL  string `long:"stock-webhook-url" env:"STOCK_DISCORD_URL" description:"Discord webhook for the price report"`

	SupabaseURL string `long:"supabase-url" env:"SUPABASE_URL" description:"Supabase project URL"`
	SupabaseKey string `long:"supabase-key" env:"SUPABASE_KEY" description:"Supabase API key"`

	Track17Key       string `long:"track17-key" env:"TRACK17_KEY" description:"17TRACK API key"`
	Track17KeyHeader string `long:"track17-key-header" env:"TRACK17_KEY_HEADER" description:"Header carrying the 17TRACK API key"`

	StorageBackend string `long:"storage" env:"STORAGE_BACKEND" description:"supabase, postgres, sqlite or memory"`
	DatabaseURL    string `long:"database-url" env:"DATABASE_URL" description:"Postgres connection URL"`
	SQLitePath     string `long:"sqlite-path" env:"SQLITE_PATH" description:"SQLite database file"`

	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address; enables run lock, quote cache and provider quota"`
	KafkaBrokers string `long:"kafka-brokers" env:"KAFKA_BROKERS" description:"Comma separated Kafka brokers; enables status change events"`

	LogLevel  string `long:"log-level" env:"LOG_LEVEL" description:"debug, info, warn or error"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" description:"text or json"`
}

// Load parses args and the environment, reads the YAML file they point to
// (if any), applies overrides and defaults, and validates the result.
func Load(args []string) (*Config, error) {
	var ov Overrides
	parser := flags.NewParser(&ov, flags.HelpFlag|flags.PassDoubleDash|flags.IgnoreUnknown)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	path := ov.ConfigPath
	if path == "" {
		path = os.Getenv("configPath")
	}

	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	ov.apply(cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (ov Overrides) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Discord.ParcelWebhookURL, ov.ParcelWebhookURL)
	set(&cfg.Discord.StockWebhookURL, ov.StockWebhookURL)
	set(&cfg.Supabase.URL, ov.SupabaseURL)
	set(&cfg.Supabase.Key, ov.SupabaseKey)
	set(&cfg.Track17.APIKey, ov.Track17Key)
	set(&cfg.Track17.KeyHeader, ov.Track17KeyHeader)
	set(&cfg.Storage.Backend, ov.StorageBackend)
	set(&cfg.Database.URL, ov.DatabaseURL)
	set(&cfg.SQLite.Path, ov.SQLitePath)
	set(&cfg.Redis.Addr, ov.RedisAddr)
	set(&cfg.Log.Level, ov.LogLevel)
	set(&cfg.Log.Format, ov.LogFormat)

	if ov.KafkaBrokers != "" {
		var brokers []string
		for _, b := range strings.Split(ov.KafkaBrokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
}
