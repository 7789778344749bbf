package di

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/handler/api"
	mid "CryptoPulse/internal/middleware"
	internalrepo "CryptoPulse/internal/repository"
	"CryptoPulse/internal/service/binance"
	"CryptoPulse/internal/service/cache"
	"CryptoPulse/internal/service/coingecko"
	pipemetrics "CryptoPulse/internal/service/metrics"
	"CryptoPulse/internal/service/ratelimit"
	"CryptoPulse/internal/usecase"
	pkgch "CryptoPulse/pkg/clickhouse"
	"CryptoPulse/pkg/config"
	pkgkafka "CryptoPulse/pkg/kafka"
	applogger "CryptoPulse/pkg/logger"
	"CryptoPulse/pkg/metrics"
	"CryptoPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// series schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (symbol String, ts DateTime, price Float64, source String) ENGINE=MergeTree ORDER BY (symbol, ts)",
			table),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSeriesStore creates the ClickHouse series store and loads its
// append watermark.
func ProvideSeriesStore(chClient *pkgch.Client, cfg *config.Config) (repository.SeriesStore, error) {
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	store := internalrepo.NewClickHouseSeriesStore(chClient.DB(), table, cfg.Feed.Symbol)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("series store init: %w", err)
	}
	return store, nil
}

// ProvideArtifactStore creates the file-backed model artifact store.
func ProvideArtifactStore(cfg *config.Config) (repository.ArtifactStore, error) {
	return internalrepo.NewFileArtifactStore(cfg.Model.Dir)
}

// ProvidePriceSource creates the CoinGecko spot price feed.
func ProvidePriceSource(cfg *config.Config) repository.PriceSource {
	return coingecko.New(
		cfg.Feed.URL,
		cfg.Feed.Symbol,
		cfg.Feed.Currency,
		cfg.Feed.UserAgent,
		cfg.Feed.Timeout,
	)
}

// ProvidePublisher creates the Kafka fan-out publisher, or a no-op
// when Kafka is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSamplePublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideMetrics creates the Prometheus metrics recorder and registers
// the pipeline collectors.
func ProvideMetrics() repository.Metrics {
	pipemetrics.Register()
	return metrics.New()
}

// ProvideIngestor creates the sample ingestion use case.
func ProvideIngestor(
	source repository.PriceSource,
	store repository.SeriesStore,
	pub repository.Publisher,
	m repository.Metrics,
) *usecase.SampleIngestor {
	return usecase.NewSampleIngestor(source, store, pub, m)
}

// ProvideBatchRunner creates the server-side collection loop.
func ProvideBatchRunner(ingestor *usecase.SampleIngestor, l *applogger.Logger) *usecase.BatchRunner {
	return usecase.NewBatchRunner(ingestor, l)
}

// ProvideNowcastService creates the train/predict orchestrator.
func ProvideNowcastService(
	series repository.SeriesStore,
	artifacts repository.ArtifactStore,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.NowcastService {
	return usecase.NewNowcastService(series, artifacts, l, cfg.Model.SeriesLimit, cfg.Model.MinRows)
}

// ProvideBytesCache selects Redis or the in-process TTL cache.
func ProvideBytesCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Redis {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideStreamCollector creates the optional live WebSocket ingestion
// path. Returns nil when the stream is disabled.
func ProvideStreamCollector(
	cfg *config.Config,
	ingestor *usecase.SampleIngestor,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.StreamCollector {
	if !cfg.Stream.Enabled {
		return nil
	}

	stream := binance.New(
		cfg.Stream.URL,
		cfg.Stream.Symbol,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
	pipe := mid.NewStreamPipeline(ingestor, m,
		mid.WithMaxRPS(cfg.Stream.MaxRPS),
		mid.WithBufferSize(cfg.Stream.BufferSize),
	)
	return usecase.NewStreamCollector(stream, pipe, l, cfg.Stream.ReconnectDelay)
}

// ProvideHandler creates the API handler with caching and rate
// limiting wired in.
func ProvideHandler(
	nowcast *usecase.NowcastService,
	ingestor *usecase.SampleIngestor,
	batch *usecase.BatchRunner,
	series repository.SeriesStore,
	bytesCache cache.BytesCache,
	l *applogger.Logger,
	cfg *config.Config,
) *api.NowcastHandler {
	return api.NewNowcastHandler(
		nowcast, ingestor, batch, series,
		bytesCache, ratelimit.New(), l,
		cfg.Cache.PredictTTL,
	)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	handler *api.NowcastHandler,
	collector *usecase.StreamCollector,
	pub repository.Publisher,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, collector, pub, chClient, l)
}
