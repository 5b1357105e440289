// Package ratelimit provides limiters keyed by caller identity. Limiter state
// lives behind an injected value, never in ambient globals.
package ratelimit

import "context"

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
