// internal/workers/roster/optimize-group/handler.go
package optimizegroup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"roster-optimizer/internal/common/database"
	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
	"roster-optimizer/internal/common/validation"
	"roster-optimizer/internal/roster/aggregator"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

const (
	TaskType = "optimize-group"

	cacheKeyPrefix = "roster:solve:"
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	redis        redis.Cmdable
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. A nil rdb disables the result cache.
func NewHandler(config *Config, rdb redis.Cmdable, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		redis:        rdb,
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

	input, err := DecodeInput([]byte(job.Variables))
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, "", time.Since(start))
}

// DecodeInput validates raw job variables against the input schema and
// decodes them.
func DecodeInput(raw []byte) (*Input, error) {
	if result := schema.ValidateJSON(raw); !result.Valid {
		return nil, apperrors.NewInvalidInputError(result.Error())
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := solver.FromSlots(input.Requirement)
	if err != nil {
		return nil, err
	}

	mode := h.config.Mode
	if input.Mode != "" {
		if mode, err = solver.ParseMode(input.Mode); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}

	candidates, err := buildCandidates(input)
	if err != nil {
		return nil, err
	}

	key := cacheKey(input.Group, mode, candidates, req)
	if cached, ok := h.lookup(ctx, key); ok {
		h.logger.Debug("result cache hit", map[string]interface{}{"group": input.Group})
		return cached, nil
	}

	res := solver.SolveContext(ctx, candidates, req, solver.Options{Mode: mode, TimeLimit: h.config.TimeLimit})
	metrics.ObserveSolve(string(res.Method), res.Complete, res.Stats.Nodes, res.Stats.Pruned, res.Stats.Infeasible, res.Stats.TimedOut, res.Stats.Elapsed)

	h.logger.Info("group solved", map[string]interface{}{
		"group":     input.Group,
		"total":     res.Total,
		"complete":  res.Complete,
		"method":    string(res.Method),
		"nodes":     res.Stats.Nodes,
		"elapsedMs": res.Stats.Elapsed.Milliseconds(),
	})

	output := &Output{
		Group:       input.Group,
		Total:       res.Total,
		Complete:    res.Complete,
		Method:      string(res.Method),
		Assignments: aggregator.RosterEntries(res),
		Counts:      res.Counts(),
	}

	// a search cut short may not be optimal
	if !res.Stats.TimedOut {
		h.store(ctx, key, output)
	}
	return output, nil
}

func buildCandidates(input *Input) ([]catalog.Candidate, error) {
	seen := make(map[string]bool, len(input.Candidates))
	out := make([]catalog.Candidate, 0, len(input.Candidates))

	for i, rec := range input.Candidates {
		row := i + 1
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, apperrors.NewMissingFieldError("id", row)
		}
		if seen[id] {
			return nil, apperrors.NewDuplicateCandidateError(id, row)
		}
		if g := strings.TrimSpace(rec.Group); g != "" && g != input.Group {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("candidate %s belongs to group %s, not %s", id, g, input.Group))
		}
		categories := catalog.NormalizeCategories(rec.Categories)
		if len(categories) == 0 {
			return nil, apperrors.NewMissingFieldError("categories", row)
		}
		seen[id] = true

		out = append(out, catalog.Candidate{
			ID:           id,
			Name:         strings.TrimSpace(rec.Name),
			Group:        input.Group,
			Value:        catalog.SanitizeValue(rec.Value),
			Categories:   categories,
			Affiliation:  rec.Affiliation,
			RosterStatus: rec.RosterStatus,
		})
	}
	return out, nil
}

// cacheKey hashes everything that determines the solve outcome. Candidate
// order is kept since it breaks ties between equal values.
func cacheKey(group string, mode solver.Mode, candidates []catalog.Candidate, req solver.Requirement) string {
	type keyCandidate struct {
		ID         string   `json:"i"`
		Name       string   `json:"n"`
		Value      float64  `json:"v"`
		Categories []string `json:"c"`
	}
	doc := struct {
		Group       string             `json:"g"`
		Mode        solver.Mode        `json:"m"`
		Requirement solver.Requirement `json:"r"`
		Candidates  []keyCandidate     `json:"c"`
	}{Group: group, Mode: mode, Requirement: req}

	for _, c := range candidates {
		doc.Candidates = append(doc.Candidates, keyCandidate{ID: c.ID, Name: c.Name, Value: c.Value, Categories: c.Categories})
	}

	data, _ := json.Marshal(doc)
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (h *Handler) lookup(ctx context.Context, key string) (*Output, bool) {
	if h.redis == nil {
		return nil, false
	}

	var cached Output
	found, err := database.GetJSON(ctx, h.redis, key, &cached)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("result cache read failed", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewCacheUnavailableError(err).Error(),
		})
		return nil, false
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	cached.Cached = true
	return &cached, true
}

func (h *Handler) store(ctx context.Context, key string, output *Output) {
	if h.redis == nil {
		return
	}
	if err := database.SetJSON(ctx, h.redis, key, output, h.config.CacheTTL); err != nil {
		h.logger.Warn("result cache write failed", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewCacheUnavailableError(err).Error(),
		})
	}
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
