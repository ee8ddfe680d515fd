// internal/workers/roster/publish-standings/handler_test.go
package publishstandings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		EmailEnabled: true,
		FromEmail:    "standings@league.test",
		Recipients:   []string{"commissioner@league.test"},
		SNSEnabled:   true,
		TopicARN:     "arn:aws:sns:us-east-1:000000000000:roster-standings",
	}
}

func createInput() *Input {
	return &Input{
		RunID: "run-1",
		Standings: []models.Standing{
			{Rank: 1, Group: "Owls", Total: 30, Complete: false, Method: "greedy"},
			{Rank: 2, Group: "Wolves", Total: 18, Complete: true, Method: "exact"},
		},
	}
}

func okSES(sent *[]*ses.SendEmailInput) *MockSESService {
	return &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			*sent = append(*sent, params)
			return &ses.SendEmailOutput{}, nil
		},
	}
}

func okSNS(published *[]*sns.PublishInput) *MockSNSService {
	return &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			*published = append(*published, params)
			return &sns.PublishOutput{}, nil
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SendsOnAllChannels(t *testing.T) {
	var sent []*ses.SendEmailInput
	var published []*sns.PublishInput

	handler := NewHandler(createTestConfig(), okSES(&sent), okSNS(&published), logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), createInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelSNS, ChannelEmail}, output.Channels)
	assert.NotEmpty(t, output.NotificationID)

	require.Len(t, published, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:roster-standings", *published[0].TopicArn)
	assert.Equal(t, "Roster standings for run run-1", *published[0].Subject)
	assert.Contains(t, *published[0].Message, "Owls")

	require.Len(t, sent, 1)
	assert.Equal(t, []string{"commissioner@league.test"}, sent[0].Destination.ToAddresses)
	assert.Equal(t, "standings@league.test", *sent[0].Source)
	assert.Contains(t, *sent[0].Message.Body.Text.Data, "Wolves")
}

func TestHandler_Execute_InputRecipientsOverrideConfig(t *testing.T) {
	var sent []*ses.SendEmailInput
	cfg := createTestConfig()
	cfg.SNSEnabled = false

	input := createInput()
	input.Recipients = []string{"a@league.test", "b@league.test"}

	output, err := NewHandler(cfg, okSES(&sent), nil, logger.NewTestLogger(t)).Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@league.test", "b@league.test"}, sent[0].Destination.ToAddresses)
}

func TestHandler_Execute_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{
			name: "both channels off",
			mutate: func(cfg *Config) {
				cfg.EmailEnabled = false
				cfg.SNSEnabled = false
			},
		},
		{
			name: "no recipients and no topic",
			mutate: func(cfg *Config) {
				cfg.Recipients = nil
				cfg.TopicARN = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent []*ses.SendEmailInput
			var published []*sns.PublishInput
			cfg := createTestConfig()
			tt.mutate(cfg)

			output, err := NewHandler(cfg, okSES(&sent), okSNS(&published), logger.NewTestLogger(t)).
				Execute(context.Background(), createInput())
			require.NoError(t, err)

			assert.Equal(t, StatusDisabled, output.Status)
			assert.Empty(t, output.Channels)
			assert.Empty(t, sent)
			assert.Empty(t, published)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_SendFailures(t *testing.T) {
	failingSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}
	failingSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("NotFound: Topic does not exist")
		},
	}

	t.Run("sns failure", func(t *testing.T) {
		var sent []*ses.SendEmailInput
		output, err := NewHandler(createTestConfig(), okSES(&sent), failingSNS, logger.NewTestLogger(t)).
			Execute(context.Background(), createInput())
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, output.Status)
		assert.Empty(t, sent)
	})

	t.Run("email failure", func(t *testing.T) {
		var published []*sns.PublishInput
		output, err := NewHandler(createTestConfig(), failingSES, okSNS(&published), logger.NewTestLogger(t)).
			Execute(context.Background(), createInput())
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, output.Status)
		assert.Equal(t, []string{ChannelSNS}, output.Channels)
		assert.Len(t, published, 1)
	})
}

func TestHandler_Execute_MissingRunID(t *testing.T) {
	_, err := NewHandler(createTestConfig(), nil, nil, logger.NewTestLogger(t)).
		Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequiredField))
}

// ==========================
// Rendering Tests
// ==========================

func TestRenderSummary(t *testing.T) {
	summary := RenderSummary("run-1", createInput().Standings)
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "Roster standings (run run-1)", lines[0])
	assert.Equal(t, " 1. Owls                          30.00 FPts  greedy (incomplete)", lines[2])
	assert.Equal(t, " 2. Wolves                        18.00 FPts  exact", lines[3])

	assert.Contains(t, RenderSummary("run-2", nil), "No groups were solved.")
}

func TestSubject_Truncated(t *testing.T) {
	assert.Len(t, Subject(strings.Repeat("x", 200)), maxSubjectLength)
}
