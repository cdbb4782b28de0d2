/*
Package gatewaysdk provides a client SDK for the chatgate API gateway.

# Overview

chatgate fronts an OpenAI-compatible chat completion API. Callers present a
rotating access key in the x-api-key header. The key changes every ISO week
and is handed out to administrators by the /current-key endpoint, which is
protected by the admin-secret header.

	client := gatewaysdk.NewClient("https://chat.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Fetch this week's key (administrators only)
	key, err := client.GetCurrentKey(ctx, adminSecret)

	// Chat with the key
	completion, err := client.Chat(ctx, key.APIKey, "Write a haiku about Mondays")
	fmt.Println(completion.Text())

# Error Handling

Every non-2xx answer is returned as an *APIError carrying the HTTP status and
the gateway's error code. The predefined errors compare equal under
errors.Is:

	_, err := client.Chat(ctx, staleKey, "hi")
	if errors.Is(err, gatewaysdk.ErrUnauthorized) {
		// Key rotated; fetch the new one.
	}

# Thread Safety

A Client holds no per-request state and is safe for concurrent use.
*/
package gatewaysdk
