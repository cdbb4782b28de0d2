package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// Upstream defaults for the Groq OpenAI-compatible API.
const (
	DefaultUpstreamURL       = "https://api.groq.com/openai/v1/chat/completions"
	DefaultUpstreamModel     = "llama3-70b-8192"
	DefaultUpstreamMaxTokens = 1000
	DefaultUpstreamTimeout   = 30 * time.Second
)

// maxUpstreamBody caps how much of an upstream answer is read.
const maxUpstreamBody = 4 << 20

// ChatConfig configures the upstream chat completion client.
type ChatConfig struct {
	URL       string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Keys      *KeyPool
}

// ChatService forwards prompts to the upstream chat completion API.
type ChatService struct {
	client    *http.Client
	url       string
	model     string
	maxTokens int
	keys      *KeyPool
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewChatService returns a ChatService. Zero config fields take the Groq
// defaults; m may be nil.
func NewChatService(cfg ChatConfig, m *metrics.Metrics, logger *slog.Logger) (*ChatService, error) {
	if cfg.Keys == nil {
		return nil, ErrNoUpstreamKeys
	}
	if cfg.URL == "" {
		cfg.URL = DefaultUpstreamURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultUpstreamModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultUpstreamMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultUpstreamTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ChatService{
		client:    &http.Client{Timeout: cfg.Timeout},
		url:       cfg.URL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		keys:      cfg.Keys,
		metrics:   m,
		logger:    logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Complete sends prompt upstream as a single user message and returns the
// upstream JSON document unchanged.
func (s *ChatService) Complete(ctx context.Context, prompt string) (json.RawMessage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	body, err := json.Marshal(completionRequest{
		Model:     s.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encode upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	key := s.keys.Next()
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if reqID := slogx.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set(slogx.RequestIDHeader, reqID)
	}

	log := slogx.FromContext(ctx).With("upstream_key", cryptox.Mask(key), "model", s.model)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.observe("transport_error", start)
		log.Error("upstream request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		s.observe("transport_error", start)
		log.Error("upstream response read failed", "error", err)
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.observe("status_error", start)
		log.Warn("upstream returned error status", "status", resp.StatusCode)
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode, Body: raw}
	}

	if !json.Valid(raw) {
		s.observe("invalid_body", start)
		log.Warn("upstream returned non-JSON body", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrUpstream)
	}

	s.observe("ok", start)
	log.Debug("upstream request completed", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return json.RawMessage(raw), nil
}

func (s *ChatService) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveUpstream(outcome, time.Since(start))
	}
}

// UpstreamStatusError reports a non-2xx upstream answer. It matches
// ErrUpstream under errors.Is.
type UpstreamStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstream, e.StatusCode)
}

func (e *UpstreamStatusError) Is(target error) bool { return target == ErrUpstream }
