package main

import (
	// Go Internal Packages
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// Local Packages
	config "tx-feed/config"
	helpers "tx-feed/helpers"
	kafka "tx-feed/kafka"
	models "tx-feed/models"
	backend "tx-feed/repositories/backend"
	mongodb "tx-feed/repositories/mongodb"
	redis "tx-feed/repositories/redis"
	scheduler "tx-feed/scheduler"
	loader "tx-feed/services/loader"
	notifications "tx-feed/services/notifications"
	session "tx-feed/services/session"
	sources "tx-feed/services/sources"
	utils "tx-feed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/jonboulle/clockwork"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var (
	configPath = kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	once       = kingpin.Flag("once", "Load the feed and the delay queue once, print them as JSON and exit").Bool()
)

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	if token := os.Getenv("BACKEND_TOKEN"); token != "" {
		k.Backend.APIToken = token
	}
	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		k.Mongo.URI = mongoURI
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		k.Redis.Password = redisPassword
	}
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		k.Kafka.Brokers = strings.Split(kafkaBrokers, ",")
	}
	if isProdMode := os.Getenv("IS_PROD_MODE"); isProdMode != "" {
		k.IsProdMode = isProdMode == "true"
	}
	return k
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting
	appKonf = LoadSecrets(appKonf)
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = appKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, _ := appKonf.Location()
	clock := clockwork.NewRealClock()

	api := backend.NewClient(backend.Config{
		BaseURL:           appKonf.Backend.BaseURL,
		Token:             appKonf.Backend.APIToken,
		Timeout:           appKonf.Backend.Timeout,
		RequestsPerSecond: appKonf.Backend.RequestsPerSecond,
		Burst:             appKonf.Backend.Burst,
	}, logger)

	srcOpts := sources.Options{Strict: appKonf.Feed.StrictTimestamps, Logger: logger}
	fetchers := map[models.SourceKind]loader.Fetcher{
		models.SourceCard: sources.NewCardSource(api, srcOpts),
		models.SourceBank: sources.NewBankSource(api, srcOpts),
	}

	// Onchain transfers are read from the indexer's mongo store
	if appKonf.Feed.Onchain.Enabled {
		mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
		if err != nil {
			logger.Fatal("cannot create mongo client", zap.Error(err))
		}
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()

		coll := mongoClient.Database(appKonf.Mongo.Database).Collection(appKonf.Mongo.Collection)
		repo := mongodb.NewTransferRepository(coll, logger)
		fetchers[models.SourceOnchain] = sources.NewOnchainSource(repo, models.OnchainQuery{
			Address:                 appKonf.Feed.Onchain.Address,
			TokenAddress:            appKonf.Feed.Onchain.TokenAddress,
			SkipSettlementTransfers: appKonf.Feed.Onchain.SkipSettlementTransfers,
		}, srcOpts)
	}

	broadcaster := notifications.NewBroadcaster(logger)
	sinks := notifications.Fanout{broadcaster}

	if appKonf.Redis.Enabled {
		redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
		if err != nil {
			logger.Fatal("cannot create redis client", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		sinks = append(sinks, redis.NewNotificationStream(redisClient, redis.StreamConfig{
			Stream: appKonf.Redis.Stream,
			MaxLen: appKonf.Redis.MaxLen,
		}, logger))
	}

	kafkaMetrics := kprom.NewMetrics("txfeed")
	if appKonf.Kafka.Enabled {
		producer, err := kafka.NewNotificationProducer(&kafka.ProducerConfig{
			Brokers: appKonf.Kafka.Brokers,
			Topic:   appKonf.Kafka.Topic,
		}, kafkaMetrics, logger)
		if err != nil {
			logger.Fatal("cannot create notifications producer", zap.Error(err))
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			producer.Close(flushCtx)
		}()
		sinks = append(sinks, producer)
	}

	sess := session.New(sessionConfig(appKonf, loc), session.Deps{
		Fetchers:       fetchers,
		Queue:          api,
		Notifier:       sinks,
		Clock:          clock,
		RefreshTimers:  scheduler.New(clock, scheduler.WithJitter(appKonf.Feed.RefreshJitter)),
		QueueTimers:    scheduler.New(clock),
		CountdownTimer: scheduler.New(clock),
	}, logger)

	if *once {
		if err := sess.Once(ctx); err != nil {
			logger.Warn("initial load incomplete", zap.Error(err))
		}
		sess.Stop()
		output := map[string]any{
			"feed":        sess.Feed().Current(),
			"has_more":    sess.Feed().HasNextPage(),
			"delay_queue": sess.ActiveQueue(),
		}
		if err := helpers.PrintJSON(os.Stdout, output); err != nil {
			logger.Fatal("cannot print feed", zap.Error(err))
		}
		return
	}

	server := startMetricsServer(appKonf.Metrics.Addr, kafkaMetrics, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	feeds, unsubscribeFeed := sess.Feed().Subscribe()
	defer unsubscribeFeed()
	notes, unsubscribeNotes := broadcaster.Subscribe(64)
	defer unsubscribeNotes()

	if err := sess.Start(ctx); err != nil {
		logger.Warn("initial load incomplete", zap.Error(err))
	}
	defer sess.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case feed := <-feeds:
			logger.Info("feed updated",
				zap.Int("days", len(feed.Days)),
				zap.Int("transactions", feed.Len()),
				zap.Bool("has_more", sess.Feed().HasNextPage()),
			)
		case n := <-notes:
			logger.Info("delayed transaction",
				zap.String("tx_id", n.TxID),
				zap.String("kind", string(n.Kind)),
				zap.String("status", string(n.Status)),
				zap.String("remaining", utils.FormatRemaining(n.Remaining)),
				zap.String("reason", string(n.Reason)),
			)
		}
	}
}

func sessionConfig(c config.Config, loc *time.Location) session.Config {
	return session.Config{
		Location:        loc,
		RefreshInterval: c.Feed.RefreshInterval,
		Sources: map[models.SourceKind]session.SourceConfig{
			models.SourceCard: {
				Enabled: c.Feed.Card.Enabled,
				Pagination: loader.Pagination{
					Mode: loader.ByCount, Initial: c.Feed.Card.PageSize, Step: c.Feed.Card.PageSize, Max: c.Feed.Card.MaxRecords,
				},
			},
			models.SourceBank: {
				Enabled: c.Feed.Bank.Enabled,
				Pagination: loader.Pagination{
					Mode: loader.ByDays, Initial: c.Feed.Bank.LookbackDays, Step: c.Feed.Bank.StepDays, Max: c.Feed.Bank.MaxLookbackDays,
				},
			},
			models.SourceOnchain: {
				Enabled: c.Feed.Onchain.Enabled,
				Pagination: loader.Pagination{
					Mode: loader.ByDays, Initial: c.Feed.Onchain.LookbackDays, Step: c.Feed.Onchain.StepDays, Max: c.Feed.Onchain.MaxLookbackDays,
				},
			},
		},
		PollQueue:    c.DelayQueue.Enabled,
		PollInterval: c.DelayQueue.PollInterval,
		TickInterval: c.DelayQueue.TickInterval,
	}
}

func startMetricsServer(addr string, kafkaMetrics *kprom.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/metrics/kafka", kafkaMetrics.Handler())

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return server
}
