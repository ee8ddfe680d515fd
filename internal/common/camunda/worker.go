// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"roster-optimizer/internal/common/config"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
	"roster-optimizer/internal/common/observability"
)

// Instrument wraps a job handler with the active-jobs gauge and the
// OpenTelemetry job instruments. Handlers complete or fail their own jobs.
func Instrument(taskType string, handler worker.JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		gauge := metrics.WorkerJobsActive.WithLabelValues(taskType)
		gauge.Inc()
		defer gauge.Dec()

		start := time.Now()
		handler(client, job)

		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler worker.JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return jobWorker
}
