// internal/workers/roster/solve-league/handler.go
package solveleague

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
	"roster-optimizer/internal/common/observability"
	"roster-optimizer/internal/models"
	"roster-optimizer/internal/roster/aggregator"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

const (
	TaskType = "solve-league"
)

const (
	insertRunQuery = `INSERT INTO roster_runs (id, mode, group_count, candidate_count, rejected_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	insertStandingQuery = `INSERT INTO roster_standings (run_id, group_name, rank, total, complete, method)
		VALUES ($1, $2, $3, $4, $5, $6)`
	insertAssignmentQuery = `INSERT INTO roster_assignments (run_id, group_name, candidate_id, name, category, value, eligible)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

type Handler struct {
	config       *Config
	db           *sql.DB
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. With a nil db runs are solved but not stored.
func NewHandler(config *Config, db *sql.DB, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		obs:          obs,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, "", time.Since(start))
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := h.requirement(input)
	if err != nil {
		return nil, err
	}

	mode := h.config.Mode
	if input.Mode != "" {
		if mode, err = solver.ParseMode(input.Mode); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}

	cat, err := h.loadCatalog(input)
	if err != nil {
		return nil, err
	}
	for _, rej := range cat.Rejected {
		h.logger.Warn("record rejected", map[string]interface{}{
			"row":   rej.Row,
			"id":    rej.ID,
			"error": rej.Err.Error(),
		})
	}

	results, err := aggregator.SolveAll(ctx, cat.ByGroup, req, aggregator.Options{
		Solver:      solver.Options{Mode: mode, TimeLimit: h.config.TimeLimit},
		Parallelism: h.config.Parallelism,
		Logger:      h.logger,
	})
	if err != nil {
		return nil, err
	}
	h.obs.RecordGroupsSolved(ctx, len(results), string(mode))

	ranked := aggregator.Rank(results)

	var export bytes.Buffer
	if err := aggregator.WriteCSV(&export, aggregator.ExportRows(ranked, results)); err != nil {
		return nil, err
	}

	output := &Output{
		RunID:     uuid.New().String(),
		Standings: aggregator.ToModels(ranked, results),
		Rejected:  rejectedRecords(cat.Rejected),
		ExportCSV: export.String(),
	}

	if h.db != nil {
		run := models.RosterRun{
			ID:             output.RunID,
			Mode:           string(mode),
			GroupCount:     len(results),
			CandidateCount: len(cat.All),
			RejectedCount:  len(cat.Rejected),
			CreatedAt:      time.Now().UTC(),
		}
		if err := h.persist(ctx, run, output.Standings); err != nil {
			return nil, err
		}
		output.Persisted = true
	}

	h.logger.Info("league solved", map[string]interface{}{
		"runId":      output.RunID,
		"groups":     len(results),
		"candidates": len(cat.All),
		"rejected":   len(cat.Rejected),
	})
	return output, nil
}

func (h *Handler) requirement(input *Input) (solver.Requirement, error) {
	if len(input.Requirement) > 0 {
		return solver.FromSlots(input.Requirement)
	}
	req := h.config.Requirement.Clone()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *Handler) loadCatalog(input *Input) (*catalog.Catalog, error) {
	opts := catalog.ParseOptions{
		Columns: h.config.Columns,
		Strict:  input.Strict || h.config.Strict,
	}

	switch {
	case len(input.Records) > 0:
		return catalog.Parse(toRecords(input.Records), opts)
	case strings.TrimSpace(input.CSV) != "":
		return catalog.Load(strings.NewReader(input.CSV), opts)
	default:
		return nil, apperrors.NewInvalidInputError("either records or csv is required")
	}
}

// toRecords flattens decoded JSON rows into string records.
func toRecords(rows []map[string]interface{}) []catalog.Record {
	out := make([]catalog.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(catalog.Record, len(row))
		for k, v := range row {
			switch val := v.(type) {
			case nil:
				rec[k] = ""
			case string:
				rec[k] = val
			case float64:
				rec[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case []interface{}:
				parts := make([]string, 0, len(val))
				for _, p := range val {
					parts = append(parts, fmt.Sprint(p))
				}
				rec[k] = strings.Join(parts, ",")
			default:
				rec[k] = fmt.Sprint(val)
			}
		}
		out = append(out, rec)
	}
	return out
}

func rejectedRecords(errs []catalog.RecordError) []models.RejectedRecord {
	out := make([]models.RejectedRecord, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.RejectedRecord{
			Row:    e.Row,
			ID:     e.ID,
			Code:   string(e.Err.Code),
			Reason: e.Err.Message + ": " + e.Err.Details,
		})
	}
	return out
}

func (h *Handler) persist(ctx context.Context, run models.RosterRun, standings []models.Standing) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewResultPersistFailedError(run.ID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, insertRunQuery,
		run.ID, run.Mode, run.GroupCount, run.CandidateCount, run.RejectedCount, run.CreatedAt,
	); err != nil {
		return apperrors.NewResultPersistFailedError(run.ID, fmt.Errorf("insert run: %w", err))
	}

	for _, s := range standings {
		if _, err := tx.ExecContext(ctx, insertStandingQuery,
			run.ID, s.Group, s.Rank, s.Total, s.Complete, s.Method,
		); err != nil {
			return apperrors.NewResultPersistFailedError(run.ID, fmt.Errorf("insert standing %s: %w", s.Group, err))
		}
		for _, e := range s.Roster {
			if _, err := tx.ExecContext(ctx, insertAssignmentQuery,
				run.ID, s.Group, e.ID, e.Name, e.Category, e.Value, e.Categories,
			); err != nil {
				return apperrors.NewResultPersistFailedError(run.ID, fmt.Errorf("insert assignment %s: %w", e.ID, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewResultPersistFailedError(run.ID, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, start time.Time) {
	metrics.ObserveJob(TaskType, string(apperrors.Normalize(err).Code), time.Since(start))
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
