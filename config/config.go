package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"
)

const (
	StorageSupabase = "supabase"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Database DatabaseConfig `yaml:"database"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Track17  Track17Config  `yaml:"track17"`
	Quotes   QuotesConfig   `yaml:"quotes"`
	Discord  DiscordConfig  `yaml:"discord"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Log      LogConfig      `yaml:"log"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // supabase | postgres | sqlite | memory
}

type SupabaseConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnString returns URL when set, otherwise builds one from the parts.
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type KafkaConfig struct {
	Brokers                []string `yaml:"brokers"`
	Host                   string   `yaml:"host"`
	Port                   int      `yaml:"port"`
	StatusChangedTopicName string   `yaml:"status_changed_topic_name"`
}

// BrokerList returns Brokers, or host:port when only those are set.
// Empty means Kafka is disabled.
func (k KafkaConfig) BrokerList() []string {
	if len(k.Brokers) > 0 {
		return k.Brokers
	}
	if k.Host != "" && k.Port > 0 {
		return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
	}
	return nil
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Address returns "" when Redis is not configured.
func (r RedisConfig) Address() string {
	if r.Addr != "" {
		return r.Addr
	}
	if r.Host != "" && r.Port > 0 {
		return fmt.Sprintf("%s:%d", r.Host, r.Port)
	}
	return ""
}

type Track17Config struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	KeyHeader string `yaml:"key_header"`
	// Fake switches to the deterministic offline client.
	Fake bool `yaml:"fake"`

	QuotaLimit         int `yaml:"quota_limit"`
	QuotaWindowSeconds int `yaml:"quota_window_seconds"`
}

type QuotesConfig struct {
	BaseURL         string `yaml:"base_url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type DiscordConfig struct {
	ParcelWebhookURL string `yaml:"parcel_webhook_url"`
	StockWebhookURL  string `yaml:"stock_webhook_url"`
	RatePerSecond    int    `yaml:"rate_per_second"`
}

type JobsConfig struct {
	RunTimeoutSeconds int    `yaml:"run_timeout_seconds"`
	LockTTLSeconds    int    `yaml:"lock_ttl_seconds"`
	ReportTimezone    string `yaml:"report_timezone"`
}

func (j JobsConfig) RunTimeout() time.Duration {
	if j.RunTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(j.RunTimeoutSeconds) * time.Second
}

// LockTTL defaults to twice the run timeout so a crashed run frees the lock.
func (j JobsConfig) LockTTL() time.Duration {
	if j.LockTTLSeconds <= 0 {
		return 2 * j.RunTimeout()
	}
	return time.Duration(j.LockTTLSeconds) * time.Second
}

// Location falls back to a fixed UTC+7 zone when tzdata is unavailable.
func (j JobsConfig) Location() *time.Location {
	name := j.ReportTimezone
	if name == "" {
		name = "Asia/Bangkok"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("UTC+7", 7*60*60)
	}
	return loc
}

type DaemonConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	PollSchedule   string `yaml:"poll_schedule"`
	ReportSchedule string `yaml:"report_schedule"`
	StockSchedule  string `yaml:"stock_schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageSupabase
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/tracknotify.db"
	}
	if c.Kafka.StatusChangedTopicName == "" {
		c.Kafka.StatusChangedTopicName = "parcel.status_changed"
	}
	if c.Discord.RatePerSecond <= 0 {
		c.Discord.RatePerSecond = 2
	}
	if c.Quotes.CacheTTLSeconds <= 0 {
		c.Quotes.CacheTTLSeconds = 300
	}
	if c.Track17.QuotaWindowSeconds <= 0 {
		c.Track17.QuotaWindowSeconds = 24 * 60 * 60
	}
	if c.Daemon.HTTPAddr == "" {
		c.Daemon.HTTPAddr = ":8082"
	}
	if c.Daemon.PollSchedule == "" {
		c.Daemon.PollSchedule = "*/30 * * * *"
	}
	if c.Daemon.ReportSchedule == "" {
		c.Daemon.ReportSchedule = "0 1 * * *"
	}
	if c.Daemon.StockSchedule == "" {
		c.Daemon.StockSchedule = "0 2 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return fmt.Errorf("supabase backend needs SUPABASE_URL and SUPABASE_KEY")
		}
	case StoragePostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("postgres backend needs DATABASE_URL or database.host")
		}
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// Validate is checked only by the jobs that call the tracking provider.
func (t Track17Config) Validate() error {
	if !t.Fake && t.APIKey == "" {
		return fmt.Errorf("TRACK17_KEY is required unless track17.fake is set")
	}
	return nil
}
