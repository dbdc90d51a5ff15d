package app

import (
	"context"

	"github.com/BearBump/TrackNotify/config"
	"github.com/BearBump/TrackNotify/internal/broker/kafka"
	"github.com/BearBump/TrackNotify/internal/cache/rediscache"
	"github.com/BearBump/TrackNotify/internal/integrations/carrier"
	"github.com/BearBump/TrackNotify/internal/integrations/carrier/fake"
	"github.com/BearBump/TrackNotify/internal/integrations/carrier/track17http"
	"github.com/BearBump/TrackNotify/internal/integrations/market"
	"github.com/BearBump/TrackNotify/internal/integrations/market/yahoohttp"
	"github.com/BearBump/TrackNotify/internal/notify/discord"
	"github.com/BearBump/TrackNotify/internal/services/parcels"
	"github.com/BearBump/TrackNotify/internal/services/stocks"
	"github.com/BearBump/TrackNotify/internal/storage/memstore"
	"github.com/BearBump/TrackNotify/internal/storage/pgparcels"
	"github.com/BearBump/TrackNotify/internal/storage/sqliteparcels"
	"github.com/BearBump/TrackNotify/internal/storage/supabase"
	"github.com/pkg/errors"
)

// Store is what every storage backend provides.
type Store interface {
	parcels.Repository
	stocks.Repository
	Close()
}

// Notifier posts a message to one chat channel.
type Notifier interface {
	Send(ctx context.Context, content string) error
}

// Factories builds the outer components. Tests replace individual entries.
type Factories struct {
	NewStore    func(cfg *config.Config) (Store, error)
	NewCarrier  func(cfg *config.Config) carrier.Client
	NewMarket   func(cfg *config.Config) market.Client
	NewNotifier func(url string, ratePerSec int) Notifier
	// NewRedis and NewProducer return nil when the backend is not configured.
	NewRedis    func(cfg *config.Config) *rediscache.RedisCache
	NewProducer func(cfg *config.Config) *kafka.Producer
}

func DefaultFactories() Factories {
	return Factories{
		NewStore: func(cfg *config.Config) (Store, error) {
			switch cfg.Storage.Backend {
			case config.StorageSupabase:
				return supabase.New(cfg.Supabase.URL, cfg.Supabase.Key)
			case config.StoragePostgres:
				return pgparcels.New(cfg.Database.ConnString())
			case config.StorageSQLite:
				return sqliteparcels.New(cfg.SQLite.Path)
			case config.StorageMemory:
				return memstore.New(), nil
			default:
				return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
			}
		},
		NewCarrier: func(cfg *config.Config) carrier.Client {
			if cfg.Track17.Fake {
				return fake.New()
			}
			return track17http.New(cfg.Track17.BaseURL, cfg.Track17.APIKey, cfg.Track17.KeyHeader)
		},
		NewMarket: func(cfg *config.Config) market.Client {
			return yahoohttp.New(cfg.Quotes.BaseURL)
		},
		NewNotifier: func(url string, ratePerSec int) Notifier {
			return discord.New(url, ratePerSec)
		},
		NewRedis: func(cfg *config.Config) *rediscache.RedisCache {
			addr := cfg.Redis.Address()
			if addr == "" {
				return nil
			}
			return rediscache.New(addr, cfg.Redis.KeyPrefix)
		},
		NewProducer: func(cfg *config.Config) *kafka.Producer {
			brokers := cfg.Kafka.BrokerList()
			if len(brokers) == 0 {
				return nil
			}
			return kafka.NewProducer(brokers, cfg.Kafka.StatusChangedTopicName)
		},
	}
}
