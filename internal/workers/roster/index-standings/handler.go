// internal/workers/roster/index-standings/handler.go
package indexstandings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
)

const (
	TaskType = "index-standings"
)

type Handler struct {
	config       *Config
	esClient     *elasticsearch.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		esClient:     esClient,
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
	if strings.TrimSpace(input.RunID) == "" {
		return nil, apperrors.NewMissingFieldError("runId", 0)
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	output := &Output{Index: h.config.Index, DocumentIDs: make([]string, 0, len(input.Standings))}

	for _, s := range input.Standings {
		docID := DocumentID(input.RunID, s.Group)
		doc := StandingDocument{
			RunID:     input.RunID,
			Group:     s.Group,
			Rank:      s.Rank,
			Total:     s.Total,
			Complete:  s.Complete,
			Method:    s.Method,
			Counts:    s.Counts,
			Roster:    s.Roster,
			IndexedAt: indexedAt,
		}
		if err := h.index(ctx, docID, doc); err != nil {
			return nil, apperrors.NewIndexFailedError(h.config.Index, err)
		}
		output.DocumentIDs = append(output.DocumentIDs, docID)
		output.Indexed++
	}

	h.logger.Info("standings indexed", map[string]interface{}{
		"runId":   input.RunID,
		"index":   h.config.Index,
		"indexed": output.Indexed,
	})
	return output, nil
}

// DocumentID keys a standing by run and group so re-indexing a run overwrites it.
func DocumentID(runID, group string) string {
	return runID + ":" + group
}

func (h *Handler) index(ctx context.Context, docID string, doc StandingDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return fmt.Errorf("index %s: %w", docID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index %s: %s: %s", docID, res.Status(), strings.TrimSpace(string(msg)))
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
