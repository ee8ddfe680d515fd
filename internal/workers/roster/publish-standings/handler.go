// internal/workers/roster/publish-standings/handler.go
package publishstandings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	awsclients "roster-optimizer/internal/common/aws"
	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
	"roster-optimizer/internal/models"
)

const (
	TaskType = "publish-standings"

	// SNS rejects longer subjects.
	maxSubjectLength = 100
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	sesClient    awsclients.SESService
	snsClient    awsclients.SNSService
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, sesClient awsclients.SESService, snsClient awsclients.SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		sesClient:    sesClient,
		snsClient:    snsClient,
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

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	subject := Subject(input.RunID)
	body := RenderSummary(input.RunID, input.Standings)

	recipients := input.Recipients
	if len(recipients) == 0 {
		recipients = h.config.Recipients
	}

	if h.config.SNSEnabled && h.config.TopicARN != "" && h.snsClient != nil {
		if err := h.publish(ctx, subject, body); err != nil {
			h.logger.Error("standings publish failed", map[string]interface{}{
				"error":    apperrors.NewNotificationSendFailedError(ChannelSNS, err).Error(),
				"topicArn": h.config.TopicARN,
			})
			output.Status = StatusFailed
			return output, nil
		}
		output.Channels = append(output.Channels, ChannelSNS)
	}

	if h.config.EmailEnabled && len(recipients) > 0 && h.sesClient != nil {
		if err := h.sendEmail(ctx, recipients, subject, body); err != nil {
			h.logger.Error("standings email failed", map[string]interface{}{
				"error":      apperrors.NewNotificationSendFailedError(ChannelEmail, err).Error(),
				"recipients": len(recipients),
			})
			output.Status = StatusFailed
			return output, nil
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	}

	h.logger.Info("standings published", map[string]interface{}{
		"runId":    input.RunID,
		"status":   output.Status,
		"channels": strings.Join(output.Channels, ","),
	})
	return output, nil
}

// Subject is the notification subject for a run.
func Subject(runID string) string {
	subject := "Roster standings for run " + runID
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength]
	}
	return subject
}

// RenderSummary renders the league table as plain text, one line per group
// in standings order.
func RenderSummary(runID string, standings []models.Standing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roster standings (run %s)\n\n", runID)

	if len(standings) == 0 {
		b.WriteString("No groups were solved.\n")
		return b.String()
	}

	for _, s := range standings {
		method := s.Method
		if !s.Complete {
			method += " (incomplete)"
		}
		fmt.Fprintf(&b, "%2d. %-24s %10.2f FPts  %s\n", s.Rank, s.Group, s.Total, method)
	}
	return b.String()
}

func (h *Handler) publish(ctx context.Context, subject, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}

func (h *Handler) sendEmail(ctx context.Context, to []string, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
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
