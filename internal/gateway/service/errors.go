package service

import "errors"

var (
	// ErrEmptyPrompt is returned when a chat request carries no prompt.
	ErrEmptyPrompt = errors.New("service: prompt is required")

	// ErrUpstream wraps transport failures and non-2xx answers from the
	// chat completion API.
	ErrUpstream = errors.New("service: upstream request failed")

	// ErrUnknownPolicy is returned for an unrecognised rotation policy name.
	ErrUnknownPolicy = errors.New("service: unknown rotation policy")

	// ErrNoUpstreamKeys is returned when the upstream key pool is empty.
	ErrNoUpstreamKeys = errors.New("service: no upstream keys configured")
)
