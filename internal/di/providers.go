package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/broker/alpaca"
	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	"github.com/alloc33/market/internal/executor"
	"github.com/alloc33/market/internal/handler/api"
	internalrepo "github.com/alloc33/market/internal/repository"
	"github.com/alloc33/market/internal/strategy"
	"github.com/alloc33/market/internal/usecase"
	pkgch "github.com/alloc33/market/pkg/clickhouse"
	"github.com/alloc33/market/pkg/config"
	xhttp "github.com/alloc33/market/pkg/http"
	pkgkafka "github.com/alloc33/market/pkg/kafka"
	applogger "github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/metrics"
	"github.com/alloc33/market/pkg/queue"
	"github.com/alloc33/market/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lcfg := &applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	return applogger.New(lcfg)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the alerts
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout.Std(), cfg.ClickHouse.ReadTimeout.Std()),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.AlertsDDL(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideAlertStore creates the durable alert log repository.
func ProvideAlertStore(chClient *pkgch.Client, cfg *config.Config) domrepo.AlertStore {
	return internalrepo.NewClickHouseAlertStore(chClient.DB(), cfg.ClickHouse.Database+".alerts")
}

// ProvideEventPublisher creates the execution-outcome publisher. Without
// Kafka, outcomes stay visible in logs and metrics only.
func ProvideEventPublisher(cfg *config.Config) (domrepo.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEventPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout.Std(), cfg.Kafka.ReadTimeout.Std()),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideBrokerRegistry builds the registry with every configured broker
// client. Today that is Alpaca only.
func ProvideBrokerRegistry(cfg *config.Config) (*broker.Registry, error) {
	reg := broker.NewRegistry()

	alp, err := alpaca.New(alpaca.Config{
		BaseURL:         cfg.Alpaca.BaseURL,
		StreamURL:       cfg.Alpaca.StreamURL,
		KeyID:           cfg.Alpaca.KeyID,
		SecretKey:       cfg.Alpaca.SecretKey,
		Timeout:         cfg.Alpaca.Timeout.Std(),
		RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca client: %w", err)
	}
	if err := reg.Register(models.BrokerAlpaca, alp); err != nil {
		return nil, err
	}
	return reg, nil
}

// ProvideOrderStream creates the Alpaca trade-updates listener, or nil when
// streaming is disabled.
func ProvideOrderStream(cfg *config.Config, log *applogger.Logger) *alpaca.Stream {
	if !cfg.Alpaca.StreamEnabled {
		return nil
	}
	return alpaca.NewStream(alpaca.Config{
		StreamURL: cfg.Alpaca.StreamURL,
		KeyID:     cfg.Alpaca.KeyID,
		SecretKey: cfg.Alpaca.SecretKey,
	}, log)
}

// ProvideStrategyTable loads the immutable strategy table from config.
func ProvideStrategyTable(cfg *config.Config) (*strategy.Table, error) {
	return strategy.LoadTable(cfg)
}

// ProvideExecutor creates the retry-driving trade executor.
func ProvideExecutor(log *applogger.Logger, m domrepo.Metrics) *executor.Executor {
	return executor.New(log, m)
}

// ProvideTradeSignalJob creates the dispatch queue consumer.
func ProvideTradeSignalJob(
	log *applogger.Logger,
	table *strategy.Table,
	brokers *broker.Registry,
	exec *executor.Executor,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
) *usecase.TradeSignalJob {
	return usecase.NewTradeSignalJob(log, table, brokers, exec, events, m)
}

// ProvideDispatchBackend builds the queue backend named in config and
// registers the trade-signal job on it. Queue-level redelivery stays at 0:
// the executor owns the retry budget.
func ProvideDispatchBackend(
	cfg *config.Config,
	log *applogger.Logger,
	job *usecase.TradeSignalJob,
) (queue.Backend, error) {
	qcfg := &queue.QueueConfig{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
	}

	var backend queue.Backend
	switch cfg.Dispatch.Backend {
	case "", "memory":
		backend = queue.NewMemoryQueue(log, qcfg)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		backend = queue.NewRedisQueue(log, qcfg, client)
	default:
		return nil, fmt.Errorf("unknown dispatch backend %q", cfg.Dispatch.Backend)
	}

	backend.RegisterJob(job)
	return backend, nil
}

// ProvideIngestor creates the webhook-facing ingestion use case.
func ProvideIngestor(
	log *applogger.Logger,
	store domrepo.AlertStore,
	table *strategy.Table,
	brokers *broker.Registry,
	backend queue.Backend,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
) *usecase.AlertIngestor {
	return usecase.NewAlertIngestor(log, store, table, brokers, backend, events, m)
}

// ProvideHTTPHandler composes the API surface.
func ProvideHTTPHandler(
	cfg *config.Config,
	log *applogger.Logger,
	ingestor *usecase.AlertIngestor,
	brokers *broker.Registry,
	store domrepo.AlertStore,
) xhttp.Handler {
	webhook := api.NewWebhookHandler(log, ingestor)
	query := api.NewQueryHandler(log, brokers, store)
	return api.NewRouter(log, webhook, query, store, cfg.Auth.APIKey)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	backend queue.Backend,
	stream *alpaca.Stream,
	events domrepo.EventPublisher,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, backend, stream, events, chClient, handler)
}
