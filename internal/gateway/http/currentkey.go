package http

import (
	"net/http"

	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// CurrentKeyHandler hands the current rotating key to administrators. The
// admin secret is checked by middleware before this handler runs.
type CurrentKeyHandler struct {
	KeyRotationService *service.KeyRotationService
}

// ServeHTTP handles GET /current-key
//
//	@Summary		Get the current API key
//	@Description	Returns this week's API key, its expiry and the whole days left before it expires.
//	@Description	Depending on the rotation policy an expired key is rotated before answering.
//	@Description	If the new key could not be persisted the response carries a warning.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.CurrentKeyResponse
//	@Failure		403	{object}	gatewaysdk.ErrorResponse	"Forbidden - invalid admin secret"
//	@Failure		429	{object}	gatewaysdk.ErrorResponse	"Too Many Requests"
//	@Failure		500	{object}	gatewaysdk.ErrorResponse	"Internal Server Error"
//	@Security		AdminSecret
//	@Router			/current-key [get]
func (h *CurrentKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.KeyRotationService == nil {
		gatewaysdk.ErrServerError.WithDescription("key rotation service not initialized").WriteError(w)
		return
	}

	resp, err := h.KeyRotationService.CurrentKey(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("current key lookup failed", "error", err)
		gatewaysdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatewaysdk.CurrentKeyResponse{
		APIKey:        resp.APIKey,
		Expiry:        resp.Expiry,
		DaysRemaining: resp.DaysRemaining,
		Warning:       resp.Warning,
	})
}
