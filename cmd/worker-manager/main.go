package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	awsclients "roster-optimizer/internal/common/aws"
	"roster-optimizer/internal/common/camunda"
	"roster-optimizer/internal/common/config"
	"roster-optimizer/internal/common/database"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/observability"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"

	is "roster-optimizer/internal/workers/roster/index-standings"
	og "roster-optimizer/internal/workers/roster/optimize-group"
	ps "roster-optimizer/internal/workers/roster/publish-standings"
	sl "roster-optimizer/internal/workers/roster/solve-league"
)

var connectRetry = &camunda.RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func main() {
	bootLog := logger.NewStructured("info", "console")
	bootLog.Info("Starting worker manager...", nil)

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.FromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.App.Name)

	obs := observability.New("worker-manager", log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebeClient, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            connectRetry,
	}, log)
	if err != nil {
		log.Error("zeebe client failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("Zeebe client connected successfully", nil)

	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, connectRetry, log, "PostgreSQL connection", func(ctx context.Context) error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	})
	if err != nil {
		log.Error("postgres failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		log.Error("roster schema migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("PostgreSQL connected successfully", nil)

	var esClient *database.ElasticsearchClient
	err = camunda.RetryWithBackoff(ctx, connectRetry, log, "Elasticsearch connection", func(ctx context.Context) error {
		var err error
		if esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			return err
		}
		return esClient.Ping()
	})
	if err != nil {
		log.Error("elasticsearch failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.StandingsIndex, database.StandingsMapping); err != nil {
		log.Error("standings index setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("Elasticsearch connected successfully", nil)

	var rdb *database.RedisClient
	err = camunda.RetryWithBackoff(ctx, connectRetry, log, "Redis connection", func(ctx context.Context) error {
		var err error
		if rdb, err = database.NewRedis(cfg.Database.Redis); err != nil {
			return err
		}
		return rdb.Ping(ctx)
	})
	if err != nil {
		log.Error("redis failed after retries", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()
	log.Info("Redis connected successfully", nil)

	aws, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		log.Warn("AWS clients unavailable, standings will not be published", map[string]interface{}{"error": err.Error()})
		aws = &awsclients.Clients{}
	}

	log.Info("All external service clients initialized", nil)

	mode, err := solver.ParseMode(cfg.Solver.Mode)
	if err != nil {
		log.Error("invalid solver mode", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	timeLimit := config.GetDuration(cfg.Solver.TimeLimitMs)

	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if w := camunda.StartWorker(zeebeClient, taskType, cfg.Workers[taskType], handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := og.LoadConfig()
		wcfg.Timeout = jobTimeout(cfg, og.TaskType, wcfg.Timeout)
		wcfg.CacheTTL = time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
		wcfg.TimeLimit = timeLimit
		wcfg.Mode = mode
		start(og.TaskType, og.NewHandler(wcfg, rdb.Client, log).Handle)
	}

	{
		wcfg := sl.LoadConfig()
		wcfg.Timeout = jobTimeout(cfg, sl.TaskType, wcfg.Timeout)
		wcfg.Mode = mode
		wcfg.TimeLimit = timeLimit
		wcfg.Parallelism = cfg.Solver.Parallelism
		wcfg.Requirement = solver.Requirement(cfg.Solver.Requirement())
		wcfg.CategoryOrder = cfg.Solver.CategoryOrder()
		wcfg.Columns = catalog.ColumnsFromConfig(cfg.Input)
		wcfg.Strict = cfg.Input.Strict
		start(sl.TaskType, sl.NewHandler(wcfg, pg.DB, obs, log).Handle)
	}

	{
		wcfg := is.LoadConfig()
		wcfg.Timeout = jobTimeout(cfg, is.TaskType, wcfg.Timeout)
		wcfg.Index = cfg.Database.Elasticsearch.StandingsIndex
		start(is.TaskType, is.NewHandler(wcfg, esClient.Client, log).Handle)
	}

	{
		wcfg := ps.LoadConfig()
		wcfg.Timeout = jobTimeout(cfg, ps.TaskType, wcfg.Timeout)
		wcfg.EmailEnabled = cfg.Notifications.Email.Enabled
		wcfg.FromEmail = cfg.Notifications.Email.FromEmail
		wcfg.Recipients = cfg.Notifications.Email.Recipients
		wcfg.SNSEnabled = cfg.Notifications.SNS.Enabled
		wcfg.TopicARN = cfg.Notifications.SNS.TopicARN
		start(ps.TaskType, ps.NewHandler(wcfg, aws.SES, aws.SNS, log).Handle)
	}

	srv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           newMux(zeebeClient, pg, rdb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}

	if err := zeebeClient.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

// jobTimeout prefers the per-worker timeout from config over the worker default.
func jobTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}

func newMux(zeebeClient zbc.Client, pg *database.PostgresClient, rdb *database.RedisClient) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		probe := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}
		probe("zeebe", camunda.HealthCheck(ctx, zeebeClient))
		probe("postgres", pg.Ping(ctx))
		probe("redis", rdb.Ping(ctx))

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		writeStatus(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
