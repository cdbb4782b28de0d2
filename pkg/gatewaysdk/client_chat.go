package gatewaysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Chat sends a prompt through the gateway using apiKey.
func (c *Client) Chat(ctx context.Context, apiKey, prompt string) (*ChatCompletion, error) {
	body, err := json.Marshal(ChatRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/chat", bytes.NewReader(body), map[string]string{
		HeaderAPIKey:   apiKey,
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	raw, err := readBody(resp, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var completion ChatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	completion.Raw = raw

	return &completion, nil
}
