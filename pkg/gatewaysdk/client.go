package gatewaysdk

import (
	"net/http"
	"strings"
	"time"
)

// Header names understood by the gateway.
const (
	HeaderAPIKey      = "x-api-key"
	HeaderAdminSecret = "admin-secret"
)

// Client is a client for the chatgate gateway.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new gateway client. The timeout leaves room for the
// gateway's own upstream timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}
