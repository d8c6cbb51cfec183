package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/agent"
	"github.com/connectcareer/careerflow/api/handlers"
	"github.com/connectcareer/careerflow/chat"
	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/config"
	"github.com/connectcareer/careerflow/internal/cache"
	"github.com/connectcareer/careerflow/internal/metrics"
	"github.com/connectcareer/careerflow/internal/server"
	"github.com/connectcareer/careerflow/internal/telemetry"
	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/llm/retry"
	"github.com/connectcareer/careerflow/llm/tokenizer"
	"github.com/connectcareer/careerflow/memory"
	"github.com/connectcareer/careerflow/persistence"
	"github.com/connectcareer/careerflow/pipeline"
	"github.com/connectcareer/careerflow/workflow"
)

// checkpointTTL bounds how long an interrupted turn stays resumable in Redis.
const checkpointTTL = 24 * time.Hour

// Server assembles the engine from configuration: model client, stores,
// classifiers, agents, pipeline and the HTTP surface.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	providers  *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	collector     *metrics.Collector
	conversations persistence.ConversationStore

	watchCancel context.CancelFunc
	closers     []func() error
}

// NewServer creates a server around a validated config.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, providers *telemetry.Providers) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		providers:  providers,
	}
}

// Start wires every component and begins serving. It does not block.
func (s *Server) Start() error {
	if s.cfg.Metrics.Enabled {
		s.collector = metrics.NewCollector(s.cfg.Metrics.Namespace, s.logger)
	}

	client, err := s.buildLLMClient()
	if err != nil {
		return fmt.Errorf("failed to build model client: %w", err)
	}

	conversations, err := s.buildConversationStore()
	if err != nil {
		return fmt.Errorf("failed to build conversation store: %w", err)
	}
	s.conversations = conversations
	s.closers = append(s.closers, conversations.Close)

	checkpoints, err := s.buildCheckpointStore()
	if err != nil {
		return fmt.Errorf("failed to build checkpoint store: %w", err)
	}

	memories := &memory.Bag{
		Episodic:   memory.NewInMemoryEpisodic(),
		Semantic:   memory.NewInMemorySemantic(),
		Procedural: memory.NewInMemoryProcedural(),
	}

	router := s.buildRouter(client)
	p := pipeline.New(
		classify.NewRoleDetector(client, s.logger),
		classify.NewIntentDetector(client, s.logger),
		router,
		client,
		memories,
		checkpoints,
		s.logger,
	).WithMetrics(s.collector)

	service := chat.NewService(p, conversations, chat.Options{
		Episodic:           memories.Episodic,
		Tokenizer:          tokenizer.NewTiktokenTokenizer(s.cfg.History.TokenizerEncoding),
		HistoryTokenBudget: s.cfg.History.TokenBudget,
		Metrics:            s.collector,
		Logger:             s.logger,
	})

	mux := http.NewServeMux()
	handlers.NewChatHandler(service, s.logger).Register(mux)
	handlers.NewHealthHandler(Version, map[string]handlers.Pinger{
		"conversations": conversations,
	}, s.logger).Register(mux)

	handler := handlers.RequestID(handlers.AccessLog(s.logger)(mux))
	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	if s.cfg.Metrics.Enabled {
		if err := s.startMetricsServer(); err != nil {
			return err
		}
	}

	s.startConfigWatcher()
	return nil
}

// WaitForShutdown blocks until the HTTP server stops, then tears down the
// rest of the service.
func (s *Server) WaitForShutdown() {
	s.httpManager.WaitForShutdown()

	if s.watchCancel != nil {
		s.watchCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warn("close failed during shutdown", zap.Error(err))
		}
	}
	if s.providers != nil {
		if err := s.providers.Shutdown(ctx); err != nil {
			s.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
}

func (s *Server) buildLLMClient() (llm.Client, error) {
	if s.cfg.LLM.Provider != "" && s.cfg.LLM.Provider != "openai" {
		return nil, fmt.Errorf("unsupported llm provider: %s", s.cfg.LLM.Provider)
	}

	var client llm.Client = llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  s.cfg.LLM.APIKey,
		BaseURL: s.cfg.LLM.BaseURL,
		Model:   s.cfg.LLM.Model,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger)

	if rps := s.cfg.LLM.RequestsPerSecond; rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		client = llm.NewRateLimitedClient(client, rps, burst)
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = s.cfg.LLM.MaxRetries
	client = llm.NewResilientClient(client, policy, s.logger)
	client = llm.NewInstrumentedClient(client, s.collector)

	if ttl := s.cfg.LLM.CacheTTL; ttl > 0 {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = s.cfg.Redis.Addr
		cacheCfg.Password = s.cfg.Redis.Password
		cacheCfg.DB = s.cfg.Redis.DB
		cacheCfg.DefaultTTL = ttl

		manager, err := cache.NewManager(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn("response cache unavailable, continuing without it", zap.Error(err))
		} else {
			s.closers = append(s.closers, manager.Close)
			client = llm.NewCachedClient(client, manager, ttl)
		}
	}

	return client, nil
}

// buildRouter registers the specialist agents plus the orchestrator, which
// drives the workflow engine for multi-step goals.
func (s *Server) buildRouter(client llm.Client) *agent.Router {
	router := agent.NewRouter(s.logger)
	router.Register(agent.NewJobDiscovery(client, s.logger))
	router.Register(agent.NewJobMatching(client, s.logger))
	router.Register(agent.NewCVEnhancement(client, s.logger))
	router.Register(agent.NewLearningPath(client, s.logger))
	router.Register(agent.NewCompanyInsights(client, s.logger))
	router.Register(agent.NewComparison(client, s.logger))
	router.Register(agent.NewAnalysis(client, s.logger))
	router.Register(agent.NewInformationGathering(client, s.logger))
	router.Register(agent.NewFAQ(client, s.logger))

	engine := workflow.NewEngine(router, client, s.logger).WithMetrics(s.collector)
	router.Register(agent.NewOrchestrator(client, engine, s.logger))
	return router
}

func (s *Server) buildConversationStore() (persistence.ConversationStore, error) {
	switch s.cfg.Persistence.Backend {
	case "", "memory":
		return persistence.NewMemoryConversationStore(), nil
	case "redis":
		return persistence.NewRedisConversationStore(persistence.RedisConfig{
			Addr:      s.cfg.Redis.Addr,
			Password:  s.cfg.Redis.Password,
			DB:        s.cfg.Redis.DB,
			KeyPrefix: s.cfg.Checkpoint.KeyPrefix,
			TTL:       s.cfg.Persistence.TTL,
		})
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Mongo.Timeout)
		defer cancel()
		return persistence.NewMongoConversationStore(ctx, persistence.MongoConfig{
			URI:        s.cfg.Mongo.URI,
			Database:   s.cfg.Mongo.Database,
			Collection: s.cfg.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("unsupported persistence backend: %s", s.cfg.Persistence.Backend)
	}
}

func (s *Server) buildCheckpointStore() (pipeline.CheckpointStore, error) {
	switch s.cfg.Checkpoint.Backend {
	case "", "memory":
		return pipeline.NewMemoryCheckpointStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		return pipeline.NewRedisCheckpointStore(client, s.cfg.Checkpoint.KeyPrefix, checkpointTTL), nil
	case "sqlite":
		store, err := pipeline.NewSQLiteCheckpointStore(s.cfg.Checkpoint.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", s.cfg.Checkpoint.Backend)
	}
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger.With(zap.String("server", "metrics")))
	return s.metricsManager.Start()
}

// startConfigWatcher polls the config file and logs reloads. Most settings
// only apply at startup; the log line tells operators a restart is needed.
func (s *Server) startConfigWatcher() {
	if s.configPath == "" {
		return
	}

	loader := config.NewLoader().WithConfigPath(s.configPath)
	watcher, err := config.NewWatcher(loader, s.configPath, 0, s.logger)
	if err != nil {
		s.logger.Warn("config watcher disabled", zap.Error(err))
		return
	}
	watcher.OnReload(func(cfg *config.Config) {
		s.logger.Info("configuration file changed, restart to apply",
			zap.String("path", s.configPath))
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	go watcher.Watch(ctx)
}
