// Package llm implements the §6 LLM adapter contract: a rate-limited,
// circuit-breaker-protected chat-completion client. The adapter owns
// transport concerns only; retry-on-validation-failure, schema
// enforcement, and resumable caching belong to internal/rubric.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/admissions-triage/core/internal/domain"
)

// Config configures the Anthropic-backed adapter (§6: "temperature=0,
// fixed seed, JSON-mode requested").
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	Temperature        float64
	Seed               int64
	MaxTokens          int
	RequestsPerMinute  int
	Timeout            time.Duration
}

// AnthropicClient implements domain.LLMClient against the Claude Messages
// API, grounded on the teacher's pkg/external rate-limited HTTP client
// pattern (golang.org/x/time/rate token bucket) wrapped in a
// sony/gobreaker circuit breaker (teacher's pkg/external/circuit_breaker.go).
type AnthropicClient struct {
	client  anthropic.Client
	config  Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewAnthropicClient constructs an adapter. Anthropic's API has no seed
// parameter (unlike the spec's generic contract, which assumes one);
// config.Seed is retained only to feed the reproducibility hash computed
// by internal/rubric, not sent over the wire.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "anthropic-rubric-scorer",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})

	// Requests-per-minute converted to a per-second token-bucket rate,
	// burst 1, matching the single-token bucket the teacher uses for HGNC.
	perSecond := float64(cfg.RequestsPerMinute) / 60.0

	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		breaker: breaker,
	}
}

// Complete sends a single chat completion with temperature=0 and a
// tight max_tokens budget (§4.3 step 3). It is the sole network-facing
// method; the caller (internal/rubric) owns parse/validate/retry.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.config.Model),
			MaxTokens:   int64(c.config.MaxTokens),
			Temperature: anthropic.Float(c.config.Temperature),
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", domain.NewRetryableTransport("anthropic circuit breaker open, backing off")
		}
		return "", domain.NewRetryableTransport(fmt.Sprintf("anthropic completion failed: %v", err))
	}

	resp := result.(*anthropic.Message)
	if len(resp.Content) == 0 {
		return "", domain.NewRetryableTransport("anthropic response had no content blocks")
	}

	block, ok := resp.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", domain.NewRetryableTransport("anthropic response's first block was not text")
	}
	return block.Text, nil
}

// ModelVersion returns the pinned model identifier, recorded on every
// RubricScore for reproducibility (§4.3).
func (c *AnthropicClient) ModelVersion() string {
	return c.config.Model
}

var _ domain.LLMClient = (*AnthropicClient)(nil)
