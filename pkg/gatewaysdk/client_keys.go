package gatewaysdk

import (
	"context"
	"net/http"
)

// GetCurrentKey returns this week's API key. It requires the admin secret.
func (c *Client) GetCurrentKey(ctx context.Context, adminSecret string) (*CurrentKeyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/current-key", nil, map[string]string{
		HeaderAdminSecret: adminSecret,
	})
	if err != nil {
		return nil, err
	}

	var key CurrentKeyResponse
	if err := decodeJSON(resp, &key, http.StatusOK); err != nil {
		return nil, err
	}

	return &key, nil
}
