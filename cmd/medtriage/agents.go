package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/cli"
	"github.com/hyperjump/medtriage/internal/config"
	"github.com/hyperjump/medtriage/internal/diagnosis"
	"github.com/hyperjump/medtriage/internal/history"
	"github.com/hyperjump/medtriage/internal/ingest"
	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/llm"
	"github.com/hyperjump/medtriage/internal/metrics"
	"github.com/hyperjump/medtriage/internal/recommendation"
	"github.com/hyperjump/medtriage/internal/server"
	"github.com/hyperjump/medtriage/internal/storage"
	"github.com/hyperjump/medtriage/internal/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	roleDiagnosis      = "diagnosis"
	roleRecommendation = "recommendation"
	roleHistory        = "history"
	roleHistoryBackend = "history-backend"
)

// shutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// newLLM is swapped out in tests.
var newLLM = llm.New

// runningAgent is one assembled agent role: its HTTP server plus everything to release on exit.
type runningAgent struct {
	identity agent.Identity
	srv      *server.Server
	watcher  *watcher.Watcher
	closers  []io.Closer
}

// Close releases indices and stores in reverse order of creation.
func (a *runningAgent) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolveIdentity derives the agent identity from seed. A configured address that disagrees
// with the derived one wins and is logged.
func resolveIdentity(name, seed, configured string, logger *zap.Logger) agent.Identity {
	id := agent.NewIdentity(name, seed)
	if configured != "" && configured != id.Address {
		logger.Warn("configured address differs from seed-derived address, using configured",
			zap.String("configured", configured),
			zap.String("derived", id.Address),
		)
		id.Address = configured
	}
	return id
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func buildAgent(ctx context.Context, role string, cfg *config.Config, logger *zap.Logger) (*runningAgent, error) {
	reg := newRegistry()
	m := metrics.NewMetrics(reg, role)
	switch role {
	case roleDiagnosis:
		return buildDiagnosis(ctx, cfg, logger, reg, m)
	case roleRecommendation:
		return buildRecommendation(ctx, cfg, logger, reg, m)
	case roleHistory:
		return buildHistory(cfg, logger, reg, m)
	case roleHistoryBackend:
		return buildHistoryBackend(cfg, logger, reg)
	default:
		return nil, fmt.Errorf("unknown agent role: %s", role)
	}
}

func buildDiagnosis(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry, m *metrics.Metrics) (*runningAgent, error) {
	id := resolveIdentity(roleDiagnosis, cfg.Agent.SeedSecret, cfg.Agent.Address, logger)
	a := &runningAgent{identity: id}

	index, err := keyword.NewBleveIndex(cfg.Storage.MedicalIndex, keyword.DiseaseMapping())
	if err != nil {
		return nil, fmt.Errorf("open medical index: %w", err)
	}
	a.closers = append(a.closers, index)

	loader := ingest.NewLoader(index, ingest.WithLogger(logger), ingest.WithMetrics(m))
	if _, err := loader.EnsureDiseaseIndex(ctx, cfg.Storage.DiseaseDataset); err != nil {
		// Serve anyway; an empty index yields the no-documents answer.
		logger.Error("failed to load disease dataset", zap.String("path", cfg.Storage.DiseaseDataset), zap.Error(err))
	}

	client, err := newLLM(ctx, &cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	peer := agent.NewClient(id,
		agent.WithEndpoint(cfg.Agent.RecommendationAddress, cfg.Agent.RecommendationEndpoint),
		agent.WithClientLogger(logger),
	)
	svc := diagnosis.NewService(
		diagnosis.NewIndexRetriever(index),
		client,
		diagnosis.NewAgentRecommender(peer, cfg.Agent.RecommendationAddress),
		diagnosis.WithLogger(logger),
		diagnosis.WithMetrics(m),
		diagnosis.WithTopK(cfg.Search.DiagnosisTopK),
		diagnosis.WithRecommendationTimeout(cfg.Agent.Timeout()),
	)

	d := newDispatcher(id, cfg, logger, m, svc.ChatFlow(cli.FormatDiagnosis))
	svc.RegisterHandlers(d)

	a.srv = server.New(roleDiagnosis, cfg.Server.Host, cfg.Server.DiagnosisPort,
		server.WithLogger(logger),
		server.WithSubmit(d),
		server.WithMetrics(reg),
		server.WithStatus(index, cfg.Storage.MedicalIndex),
	)
	a.srv.MountDiagnosis(svc)
	return a, nil
}

func buildRecommendation(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry, m *metrics.Metrics) (*runningAgent, error) {
	id := resolveIdentity(roleRecommendation, cfg.Agent.SeedValue, "", logger)
	a := &runningAgent{identity: id}

	index, err := keyword.NewBleveIndex(cfg.Storage.OpenFDAIndex, keyword.MedicineMapping())
	if err != nil {
		return nil, fmt.Errorf("open openfda index: %w", err)
	}
	a.closers = append(a.closers, index)

	loader := ingest.NewLoader(index, ingest.WithLogger(logger), ingest.WithMetrics(m))
	if _, err := loader.EnsureLabelIndex(ctx, cfg.Storage.LabelDir); err != nil {
		logger.Error("failed to load drug labels", zap.String("dir", cfg.Storage.LabelDir), zap.Error(err))
	}

	client, err := newLLM(ctx, &cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	svc := recommendation.NewService(index, client,
		recommendation.WithLogger(logger),
		recommendation.WithMetrics(m),
		recommendation.WithTopN(cfg.Search.RecommendationTopN),
		recommendation.WithContextChars(cfg.Search.ContextChars),
	)

	d := newDispatcher(id, cfg, logger, m, svc.ChatFlow())
	svc.RegisterHandlers(d)

	if cfg.Watch.Labels {
		a.watcher = watcher.New(cfg.Storage.LabelDir, loader,
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce),
		)
		if err := a.watcher.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("watch label dir: %w", err)
		}
	}

	a.srv = server.New(roleRecommendation, cfg.Server.Host, cfg.Server.RecommendationPort,
		server.WithLogger(logger),
		server.WithSubmit(d),
		server.WithMetrics(reg),
		server.WithStatus(index, cfg.Storage.OpenFDAIndex),
	)
	a.srv.MountRecommendation(svc)
	return a, nil
}

func buildHistory(cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry, m *metrics.Metrics) (*runningAgent, error) {
	id := resolveIdentity(roleHistory, cfg.Agent.HistorySeed, "", logger)
	ag := history.NewAgent(
		history.NewOpenAIClient(&cfg.History),
		history.NewBackendClient(&cfg.History, nil),
		history.WithLogger(logger),
		history.WithMetrics(m),
		history.WithSampling(cfg.History.Model, cfg.History.Temperature, cfg.History.MaxTokens),
	)
	d := newDispatcher(id, cfg, logger, m, ag.ChatFlow())

	srv := server.New(roleHistory, cfg.Server.Host, cfg.Server.HistoryPort,
		server.WithLogger(logger),
		server.WithSubmit(d),
		server.WithMetrics(reg),
	)
	srv.MountHistory(ag)
	return &runningAgent{identity: id, srv: srv}, nil
}

func buildHistoryBackend(cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*runningAgent, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.HistoryDatabase)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	srv := server.New(roleHistoryBackend, cfg.Server.Host, cfg.Server.HistoryBackendPort,
		server.WithLogger(logger),
		server.WithMetrics(reg),
		server.WithStatus(nil, cfg.Storage.HistoryDatabase),
	)
	history.NewBackendServer(store, 0, logger).Register(srv.Router())
	return &runningAgent{srv: srv, closers: []io.Closer{store}}, nil
}

// newDispatcher creates the /submit dispatcher of an agent with chat routed to flow.
func newDispatcher(id agent.Identity, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, flow agent.ChatFlow) *agent.Dispatcher {
	sender := agent.NewHTTPSender(&http.Client{Timeout: 30 * time.Second})
	d := agent.NewDispatcher(id,
		agent.WithLogger(logger),
		agent.WithSender(sender),
		agent.WithMetrics(m),
	)
	chat := agent.NewChatHandler(id,
		agent.NewMessageGuard(cfg.Agent.DedupCapacity, cfg.Agent.DedupTTL),
		flow,
		agent.WithChatLogger(logger),
		agent.WithChatSender(sender),
		agent.WithChatMetrics(m),
	)
	d.Handle(agent.SchemaChatMessage, chat.Handle)
	return d
}

// serve runs a until SIGINT/SIGTERM (or stop, when non-nil, is closed), then shuts down gracefully.
func serve(ctx context.Context, a *runningAgent, logger *zap.Logger, stop <-chan struct{}) error {
	if a.identity.Address != "" {
		logger.Info("agent identity", zap.String("address", a.identity.Address))
	}
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-sigCh:
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
