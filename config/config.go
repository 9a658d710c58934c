package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "tx-feed/errors"
)

var DefaultConfig = []byte(`
application: "tx-feed"

logger:
  level: "debug"

is_prod_mode: false

backend:
  base_url: "http://localhost:8080/api"
  api_token: ""
  timeout: 10s
  requests_per_second: 5
  burst: 5

feed:
  timezone: "Local"
  refresh_interval: 5m
  refresh_jitter: 5s
  strict_timestamps: false
  card:
    enabled: true
    page_size: 20
    max_records: 0
  bank:
    enabled: true
    lookback_days: 30
    step_days: 30
    max_lookback_days: 365
  onchain:
    enabled: false
    address: ""
    token_address: ""
    skip_settlement_transfers: true
    lookback_days: 30
    step_days: 30
    max_lookback_days: 365

delay_queue:
  enabled: true
  poll_interval: 30s
  tick_interval: 1s

mongo:
  uri: "mongodb://localhost:27017"
  database: "indexer"
  collection: "transfers"

redis:
  enabled: false
  uri: "localhost:6379"
  password: ""
  stream: "tx-feed:notifications"
  max_len: 10000

kafka:
  enabled: false
  brokers:
    - "localhost:9092"
  topic: "tx-feed-notifications"

metrics:
  addr: ":9090"
`)

type Config struct {
	Application string     `koanf:"application"`
	Logger      Logger     `koanf:"logger"`
	IsProdMode  bool       `koanf:"is_prod_mode"`
	Backend     Backend    `koanf:"backend"`
	Feed        Feed       `koanf:"feed"`
	DelayQueue  DelayQueue `koanf:"delay_queue"`
	Mongo       Mongo      `koanf:"mongo"`
	Redis       Redis      `koanf:"redis"`
	Kafka       Kafka      `koanf:"kafka"`
	Metrics     Metrics    `koanf:"metrics"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Backend struct {
	BaseURL           string        `koanf:"base_url"`
	APIToken          string        `koanf:"api_token"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

type Feed struct {
	Timezone         string        `koanf:"timezone"`
	RefreshInterval  time.Duration `koanf:"refresh_interval"`
	RefreshJitter    time.Duration `koanf:"refresh_jitter"`
	StrictTimestamps bool          `koanf:"strict_timestamps"`
	Card             CardFeed      `koanf:"card"`
	Bank             BankFeed      `koanf:"bank"`
	Onchain          OnchainFeed   `koanf:"onchain"`
}

type CardFeed struct {
	Enabled    bool `koanf:"enabled"`
	PageSize   int  `koanf:"page_size"`
	MaxRecords int  `koanf:"max_records"`
}

type BankFeed struct {
	Enabled         bool `koanf:"enabled"`
	LookbackDays    int  `koanf:"lookback_days"`
	StepDays        int  `koanf:"step_days"`
	MaxLookbackDays int  `koanf:"max_lookback_days"`
}

type OnchainFeed struct {
	Enabled                 bool   `koanf:"enabled"`
	Address                 string `koanf:"address"`
	TokenAddress            string `koanf:"token_address"`
	SkipSettlementTransfers bool   `koanf:"skip_settlement_transfers"`
	LookbackDays            int    `koanf:"lookback_days"`
	StepDays                int    `koanf:"step_days"`
	MaxLookbackDays         int    `koanf:"max_lookback_days"`
}

type DelayQueue struct {
	Enabled      bool          `koanf:"enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
	TickInterval time.Duration `koanf:"tick_interval"`
}

type Mongo struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

type Redis struct {
	Enabled  bool   `koanf:"enabled"`
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
	Stream   string `koanf:"stream"`
	MaxLen   int64  `koanf:"max_len"`
}

type Kafka struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type Metrics struct {
	Addr string `koanf:"addr"`
}

// Location resolves feed.timezone. "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Feed.Timezone == "" || c.Feed.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Feed.Timezone)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Backend.BaseURL == "" {
		ve.Add("backend.base_url", "cannot be empty")
	}
	if c.Backend.RequestsPerSecond < 0 {
		ve.Add("backend.requests_per_second", "cannot be negative")
	}
	if _, err := c.Location(); err != nil {
		ve.Add("feed.timezone", "unknown time zone")
	}
	if c.Feed.RefreshInterval < 0 {
		ve.Add("feed.refresh_interval", "cannot be negative")
	}
	if c.Feed.RefreshJitter < 0 {
		ve.Add("feed.refresh_jitter", "cannot be negative")
	}

	if c.Feed.Card.Enabled && c.Feed.Card.PageSize <= 0 {
		ve.Add("feed.card.page_size", "must be positive")
	}
	if c.Feed.Card.MaxRecords < 0 {
		ve.Add("feed.card.max_records", "cannot be negative")
	}
	if c.Feed.Bank.Enabled {
		validateLookback(ve, "feed.bank", c.Feed.Bank.LookbackDays, c.Feed.Bank.StepDays, c.Feed.Bank.MaxLookbackDays)
	}
	if c.Feed.Onchain.Enabled {
		if c.Feed.Onchain.Address == "" {
			ve.Add("feed.onchain.address", "cannot be empty")
		}
		validateLookback(ve, "feed.onchain", c.Feed.Onchain.LookbackDays, c.Feed.Onchain.StepDays, c.Feed.Onchain.MaxLookbackDays)
		if c.Mongo.URI == "" {
			ve.Add("mongo.uri", "cannot be empty")
		}
		if c.Mongo.Database == "" {
			ve.Add("mongo.database", "cannot be empty")
		}
		if c.Mongo.Collection == "" {
			ve.Add("mongo.collection", "cannot be empty")
		}
	}

	if c.DelayQueue.Enabled {
		if c.DelayQueue.PollInterval <= 0 {
			ve.Add("delay_queue.poll_interval", "must be positive")
		}
		if c.DelayQueue.TickInterval <= 0 {
			ve.Add("delay_queue.tick_interval", "must be positive")
		}
	}
	if c.Redis.Enabled && c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			ve.Add("kafka.brokers", "cannot be empty")
		}
		if c.Kafka.Topic == "" {
			ve.Add("kafka.topic", "cannot be empty")
		}
	}

	if err := ve.Err(); err != nil {
		return errors.ValidationFailedErr(err)
	}
	return nil
}

func validateLookback(ve *errors.ValidationErrors, prefix string, lookback, step, max int) {
	if lookback <= 0 {
		ve.Add(prefix+".lookback_days", "must be positive")
	}
	if step <= 0 {
		ve.Add(prefix+".step_days", "must be positive")
	}
	if max != 0 && max < lookback {
		ve.Add(prefix+".max_lookback_days", "cannot be less than lookback_days")
	}
}
