// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"roster-optimizer/internal/common/logger"
)

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries for roughly half a minute before giving up.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 6,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// Connect opens a Zeebe client and waits until the broker answers a topology
// request, retrying transient failures with exponential backoff.
func Connect(ctx context.Context, cfg *ClientConfig, log logger.Logger) (zbc.Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}
	if cfg.ConnectionTimeout == 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}

	var client zbc.Client
	err := RetryWithBackoff(ctx, cfg.RetryConfig, log, "Zeebe connection", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.GatewayAddress,
			UsePlaintextConnection: cfg.UsePlaintextConnection,
		})
		if err != nil {
			return err
		}

		probeCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(probeCtx); err != nil {
			_ = c.Close()
			return fmt.Errorf("broker at %s not reachable: %w", cfg.GatewayAddress, err)
		}

		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// RetryWithBackoff runs operation until it succeeds, the retries run out, or
// ctx is done. Non-transient errors are returned immediately.
func RetryWithBackoff(ctx context.Context, rc *RetryConfig, log logger.Logger, operationName string, operation func(context.Context) error) error {
	var lastErr error
	delay := rc.BaseDelay

	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == rc.MaxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       lastErr.Error(),
			"attempt":     attempt + 1,
			"maxRetries":  rc.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}

		delay *= 2
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}

	return fmt.Errorf("%s failed: %w", operationName, lastErr)
}

// IsRetryable reports whether err looks like a transient connection problem.
func IsRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
		"not reachable",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// HealthCheck performs a basic health check against the Zeebe broker.
func HealthCheck(ctx context.Context, client zbc.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
