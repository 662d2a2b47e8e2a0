// Package advisor implements core/advisor.Advisor against a hosted messages
// API. The model is asked for a JSON analysis of the cycle's faults.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	coreadvisor "github.com/kilianp07/feederwatch/core/advisor"
	"github.com/kilianp07/feederwatch/core/logger"
	"github.com/kilianp07/feederwatch/core/model"
)

// EnvAPIKey is read when the configuration carries no key.
const EnvAPIKey = "ANTHROPIC_API_KEY"

const (
	DefaultBaseURL    = "https://api.anthropic.com"
	DefaultModel      = "claude-sonnet-4-20250514"
	DefaultAPIVersion = "2023-06-01"
	DefaultMaxTokens  = 4000
	DefaultTimeout    = 30 * time.Second
)

// ErrNoJSON is returned when the reply carries no JSON object.
var ErrNoJSON = errors.New("advisor: reply contains no JSON object")

// Config configures the remote client.
type Config struct {
	Enabled        bool   `json:"enabled"`
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	APIVersion     string `json:"api_version"`
	MaxTokens      int    `json:"max_tokens"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SampleSize     int    `json:"sample_size"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int(DefaultTimeout / time.Second)
	}
	if c.SampleSize == 0 {
		c.SampleSize = coreadvisor.DefaultSampleSize
	}
}

// Validate checks numeric bounds.
func (c Config) Validate() error {
	if c.MaxTokens < 0 || c.TimeoutSeconds < 0 || c.SampleSize < 0 {
		return fmt.Errorf("advisor settings must not be negative")
	}
	return nil
}

// ResolveKey returns the configured key, falling back to EnvAPIKey.
func (c Config) ResolveKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.opts = append(c.opts, option.WithHTTPClient(h)) }
}

// Client calls the messages API through the Anthropic SDK.
type Client struct {
	api       anthropic.Client
	opts      []option.RequestOption
	key       string
	baseURL   string
	model     string
	maxTokens int
	log       logger.Logger
}

// NewClient returns a Client or ErrNoAPIKey when no key is available.
func NewClient(cfg Config, log logger.Logger, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := cfg.ResolveKey()
	if key == "" {
		return nil, coreadvisor.ErrNoAPIKey
	}
	c := &Client{
		key:       key,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}
	c.opts = []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(c.baseURL + "/"),
		option.WithHeader("anthropic-version", cfg.APIVersion),
		option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		option.WithMaxRetries(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = anthropic.NewClient(c.opts...)
	return c, nil
}

// Recommend sends the request and parses the analysis out of the reply.
func (c *Client) Recommend(ctx context.Context, req coreadvisor.Request) (*model.Analysis, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("unexpected status code: %d: %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	text := ""
	for _, b := range msg.Content {
		if b.Type == "text" {
			text = b.Text
			break
		}
	}
	analysis, err := ParseAnalysis(text)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("advisor reply", map[string]any{
		"latency_ms":  time.Since(start).Milliseconds(),
		"assignments": len(analysis.EngineerAssignments),
		"stop_reason": string(msg.StopReason),
	})
	return analysis, nil
}

// ParseAnalysis decodes the span between the first '{' and the last '}'.
func ParseAnalysis(text string) (*model.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	var a model.Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &a, nil
}
