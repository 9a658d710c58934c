package config

import (
	// Go Internal Packages
	"testing"
	"time"

	// Local Packages
	errors "tx-feed/errors"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T, overrides ...[]byte) Config {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()))
	for _, o := range overrides {
		require.NoError(t, k.Load(rawbytes.Provider(o), yaml.Parser()))
	}
	var conf Config
	require.NoError(t, k.Unmarshal("", &conf))
	return conf
}

func TestDefaultConfig(t *testing.T) {
	conf := loadDefaults(t)

	require.NoError(t, conf.Validate())
	assert.Equal(t, "tx-feed", conf.Application)
	assert.Equal(t, 10*time.Second, conf.Backend.Timeout)
	assert.Equal(t, 5*time.Minute, conf.Feed.RefreshInterval)
	assert.Equal(t, 20, conf.Feed.Card.PageSize)
	assert.Equal(t, 30, conf.Feed.Bank.LookbackDays)
	assert.Equal(t, 30*time.Second, conf.DelayQueue.PollInterval)
	assert.Equal(t, time.Second, conf.DelayQueue.TickInterval)
	assert.Equal(t, []string{"localhost:9092"}, conf.Kafka.Brokers)

	loc, err := conf.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestConfigOverrides(t *testing.T) {
	conf := loadDefaults(t, []byte(`
feed:
  timezone: "Europe/Berlin"
  onchain:
    enabled: true
    address: "0xabc"
`))

	require.NoError(t, conf.Validate())
	assert.Equal(t, 20, conf.Feed.Card.PageSize, "unrelated defaults survive")
	assert.True(t, conf.Feed.Onchain.SkipSettlementTransfers)

	loc, err := conf.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		override string
		fields   []string
	}{
		{
			name:     "onchain without address",
			override: "feed:\n  onchain:\n    enabled: true\n",
			fields:   []string{"feed.onchain.address"},
		},
		{
			name:     "bad lookback",
			override: "feed:\n  bank:\n    lookback_days: 0\n    max_lookback_days: -1\n",
			fields:   []string{"feed.bank.lookback_days", "feed.bank.max_lookback_days"},
		},
		{
			name:     "unknown time zone",
			override: "feed:\n  timezone: \"Mars/Olympus\"\n",
			fields:   []string{"feed.timezone"},
		},
		{
			name:     "kafka without topic",
			override: "kafka:\n  enabled: true\n  topic: \"\"\n",
			fields:   []string{"kafka.topic"},
		},
		{
			name:     "delay queue without interval",
			override: "delay_queue:\n  poll_interval: 0s\n",
			fields:   []string{"delay_queue.poll_interval"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := loadDefaults(t, []byte(tt.override))
			err := conf.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.Invalid))
			assert.Contains(t, err.Error(), "validation failed")
			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}
