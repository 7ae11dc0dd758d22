// ABOUTME: Retrying OpenAI generator client with overload detection
// ABOUTME: Provider-specific error string sniffing is isolated to this adapter
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// Usage reports token consumption for one generator call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Generator is the external text-generation contract the pipeline
// depends on. The core never assumes a specific provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, *Usage, error)
}

// overloadMarkers are substrings the provider emits when it is
// temporarily saturated. Only these errors are retried.
var overloadMarkers = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"overloaded",
	"status code: 429",
	"status code: 503",
	"capacity",
	"try again later",
}

// IsOverloaded reports whether err looks like a transient provider
// overload rather than a fatal failure.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range overloadMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Client wraps the OpenAI API with retry logic and an availability check
// before each expensive call.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	monitor    *AvailabilityMonitor
}

// NewClient creates a generator client from configuration. The monitor
// is optional; without one every call goes straight to the provider.
func NewClient(cfg *config.Config, monitor *AvailabilityMonitor) (*Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		api:        openai.NewClient(cfg.OpenAIKey),
		model:      cfg.ChatModel,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		monitor:    monitor,
	}, nil
}

// NewMonitoredClient builds a client plus an availability monitor that
// probes the same credentials. The caller owns starting and stopping the
// monitor.
func NewMonitoredClient(cfg *config.Config) (*Client, *AvailabilityMonitor, error) {
	client, err := NewClient(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	monitor := NewAvailabilityMonitor(client.api, cfg.ProbeInterval)
	client.monitor = monitor
	return client, monitor, nil
}

// API returns the underlying OpenAI client, used to build the
// availability prober against the same credentials.
func (c *Client) API() *openai.Client {
	return c.api
}

// Generate sends one prompt and returns the generated text plus token
// usage. Overload errors are retried with exponential backoff up to the
// configured cap; all other errors propagate immediately.
func (c *Client) Generate(ctx context.Context, prompt string) (string, *Usage, error) {
	if err := c.checkAvailability(ctx); err != nil {
		return "", nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.CalculateBackoff(c.retryDelay, attempt)
			log.Printf("[Generator] overloaded, retry %d/%d in %s", attempt, c.maxRetries, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", nil, ctx.Err()
			}
		}

		text, usage, err := c.call(ctx, prompt)
		if err == nil {
			return text, usage, nil
		}
		if ctx.Err() != nil {
			return "", nil, fmt.Errorf("generator call aborted: %w", ctx.Err())
		}
		if !IsOverloaded(err) {
			return "", nil, err
		}
		lastErr = err
	}

	return "", nil, fmt.Errorf("%w: gave up after %d attempts: %v",
		models.ErrGeneratorUnavailable, c.maxRetries+1, lastErr)
}

// call performs a single chat completion bounded by the per-call timeout.
func (c *Client) call(ctx context.Context, prompt string) (string, *Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("%w: no completion choices returned", models.ErrGeneration)
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// checkAvailability consults the shared availability flag before burning
// a retry budget on a provider already known to be down. A stale flag
// falls back to one direct probe.
func (c *Client) checkAvailability(ctx context.Context) error {
	if c.monitor == nil {
		return nil
	}
	available, fresh := c.monitor.Status()
	if fresh {
		if !available {
			return fmt.Errorf("%w: availability probe reports provider down", models.ErrGeneratorUnavailable)
		}
		return nil
	}
	log.Printf("[Generator] availability flag stale, probing directly")
	if err := c.monitor.Probe(ctx); err != nil {
		return fmt.Errorf("%w: direct probe failed: %v", models.ErrGeneratorUnavailable, err)
	}
	return nil
}
