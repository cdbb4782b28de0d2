package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
)

// Upstream key selection modes.
const (
	KeyModeRound  = "round"
	KeyModeRandom = "random"
)

// KeyPool hands out upstream API keys, either round-robin or at random.
// It is safe for concurrent use.
type KeyPool struct {
	keys []string
	mode string
	next atomic.Uint64
}

// NewKeyPool builds a pool from keys, dropping blanks and duplicates.
func NewKeyPool(keys []string, mode string) (*KeyPool, error) {
	seen := make(map[string]struct{}, len(keys))
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		clean = append(clean, k)
	}
	if len(clean) == 0 {
		return nil, ErrNoUpstreamKeys
	}

	switch mode = strings.ToLower(strings.TrimSpace(mode)); mode {
	case "":
		mode = KeyModeRound
	case KeyModeRound, KeyModeRandom:
	default:
		return nil, fmt.Errorf("service: unknown upstream key mode %q", mode)
	}

	return &KeyPool{keys: clean, mode: mode}, nil
}

// Next returns the key to use for the next upstream call.
func (p *KeyPool) Next() string {
	if len(p.keys) == 1 {
		return p.keys[0]
	}
	if p.mode == KeyModeRandom {
		return p.keys[rand.IntN(len(p.keys))]
	}
	i := p.next.Add(1) - 1
	return p.keys[i%uint64(len(p.keys))]
}

// Len returns the number of distinct keys in the pool.
func (p *KeyPool) Len() int { return len(p.keys) }

// Mode returns the selection mode.
func (p *KeyPool) Mode() string { return p.mode }
