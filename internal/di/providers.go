package di

import (
	"fmt"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	internalrepo "github.com/amitpatole/tickerpulse-ai-sub003/internal/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/handler/api"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/service/ratelimit"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/service/runservice"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/usecase"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/cache"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
	xhttp "github.com/amitpatole/tickerpulse-ai-sub003/pkg/http"
	pkgkafka "github.com/amitpatole/tickerpulse-ai-sub003/pkg/kafka"
	applogger "github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/metrics"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRunService creates the HTTP client for the external run service.
func ProvideRunService(cfg *config.Config) repository.RunService {
	return runservice.New(cfg)
}

// ProvideRequestBuilder creates the builder bound to the provider catalog.
func ProvideRequestBuilder(cfg *config.Config) *usecase.RequestBuilder {
	return usecase.NewRequestBuilder(cfg.Providers)
}

// ProvideOrchestrator creates the polling orchestrator.
func ProvideOrchestrator(svc repository.RunService, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.Orchestrator {
	return usecase.NewOrchestrator(svc, m, l, cfg.RunService.PollInterval, cfg.RunService.MaxAttempts)
}

// ProvideCache creates the cache backend: Redis when enabled, in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideLastRunStore creates the last-run slot on top of the cache.
func ProvideLastRunStore(c cache.Service) repository.LastRunStore {
	return internalrepo.NewCacheLastRunStore(c, 0)
}

// ProvideEventPublisher creates the Kafka publisher when enabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideRunEventRelay wires the terminal-run fan-out.
func ProvideRunEventRelay(
	orch *usecase.Orchestrator,
	pub repository.EventPublisher,
	store repository.LastRunStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RunEventRelay {
	return usecase.NewRunEventRelay(orch, pub, store, m, l)
}

// ProvideHTTPHandler creates the run API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	builder *usecase.RequestBuilder,
	orch *usecase.Orchestrator,
	store repository.LastRunStore,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewRunsEchoHandler(l, builder, orch, store)
	if cfg.RateLimit.Enabled {
		h.EnableRateLimit(ratelimit.New(), cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	relay *usecase.RunEventRelay,
	pub repository.EventPublisher,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, orch, relay, pub, cacheSvc, handler)
}
