package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// maxChatBody caps the accepted request body.
const maxChatBody = 1 << 20

// ChatHandler proxies a prompt to the upstream chat completion API.
type ChatHandler struct {
	ChatService *service.ChatService
}

// ServeHTTP handles POST /chat
//
//	@Summary		Chat completion
//	@Description	Sends the prompt upstream as a single user message and returns the upstream completion document unchanged.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		gatewaysdk.ChatRequest	true	"Prompt"
//	@Success		200		{object}	gatewaysdk.ChatCompletion
//	@Failure		400		{object}	gatewaysdk.ErrorResponse	"Bad Request"
//	@Failure		401		{object}	gatewaysdk.ErrorResponse	"Unauthorized - invalid or expired API key"
//	@Failure		429		{object}	gatewaysdk.ErrorResponse	"Too Many Requests"
//	@Failure		502		{object}	gatewaysdk.ErrorResponse	"Upstream Error"
//	@Security		APIKey
//	@Router			/chat [post]
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gatewaysdk.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		gatewaysdk.ErrInvalidRequest.WithDescription("invalid request body").WriteError(w)
		return
	}

	completion, err := h.ChatService.Complete(r.Context(), req.Prompt)
	switch {
	case errors.Is(err, service.ErrEmptyPrompt):
		gatewaysdk.ErrInvalidRequest.WithDescription("prompt is required").WriteError(w)
		return
	case err != nil:
		slogx.FromContext(r.Context()).Warn("chat completion failed", "error", err)
		gatewaysdk.ErrUpstream.WriteError(w)
		return
	}

	httpx.WriteRawJSON(w, http.StatusOK, completion)
}
