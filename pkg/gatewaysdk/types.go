package gatewaysdk

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the wire form of an error. Client code should use
// APIError instead.
type ErrorResponse struct {
	Error            string `json:"error" example:"unauthorized"`
	ErrorDescription string `json:"error_description" example:"invalid or expired API key"`
}

// HealthResponse is returned by /health, /livez and /readyz.
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status" example:"ok"`

	// Uptime is the service uptime (e.g. "1h23m45s")
	Uptime string `json:"uptime,omitempty" example:"1h23m45s"`

	// Version is the service version string
	Version string `json:"version,omitempty" example:"0.1.0"`

	// Checks is only set by /readyz
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the readiness of the gateway's dependencies.
type HealthChecks struct {
	// KeyStore is "ok" or the ping error
	KeyStore string `json:"key_store" example:"ok"`

	// Key is "ok", "missing" or "expired"
	Key string `json:"key" example:"ok"`
}

// CurrentKeyResponse is returned by /current-key.
type CurrentKeyResponse struct {
	APIKey        string    `json:"api_key" example:"sk-4edbaceaf79443dc"`
	Expiry        time.Time `json:"expiry" example:"2024-03-11T10:00:00Z"`
	DaysRemaining int       `json:"days_remaining" example:"6"`

	// Warning is set when the key was rotated but could not be persisted.
	Warning string `json:"warning,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt" example:"Write a haiku about Mondays"`
}

// ChatMessage is one message of a completion choice.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice is one completion alternative.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatCompletion is the subset of the upstream completion document the SDK
// understands. Raw holds the full document as returned by the gateway.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`

	Raw json.RawMessage `json:"-"`
}

// Text returns the content of the first choice, or "".
func (c *ChatCompletion) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}
