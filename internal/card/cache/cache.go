// Package cache holds single cards read through GET /cards/{id}.
// A cache failure is never surfaced to callers; it degrades to a miss.
//
// Entries are versioned by the card's UpdatedAt. Fill, used on the read
// path, only writes when the cached version is older, so a read that
// raced a mutation cannot put back the card it replaced. Evict leaves a
// tombstone for the TTL that blocks such late fills.
package cache

import (
	"context"
	"time"

	"github.com/fayad123/bcards-server/internal/card/domain"
)

type Cache interface {
	Get(ctx context.Context, id string) (domain.Card, bool)
	// Fill stores a card read from storage unless the cache already holds
	// the same or a newer version, or a tombstone.
	Fill(ctx context.Context, card domain.Card)
	// Put stores a card returned by a write unless a newer version is cached.
	Put(ctx context.Context, card domain.Card)
	// Evict drops the card and blocks fills for the TTL.
	Evict(ctx context.Context, id string)
}

type Noop struct{}

func (Noop) Get(context.Context, string) (domain.Card, bool) { return domain.Card{}, false }
func (Noop) Fill(context.Context, domain.Card)               {}
func (Noop) Put(context.Context, domain.Card)                {}
func (Noop) Evict(context.Context, string)                   {}

type writeMode string

const (
	modeFill writeMode = "fill"
	modePut  writeMode = "put"
)

// tombstoneVersion outranks every real version, so nothing overwrites a
// tombstone until it expires.
const tombstoneVersion int64 = 1<<53 - 1

func version(card domain.Card) int64 {
	return card.UpdatedAt.UnixMicro()
}

// accepts reports whether a write in mode with version v may replace an
// entry holding current.
func accepts(mode writeMode, current, v int64) bool {
	if mode == modeFill {
		return v > current
	}
	return v >= current
}

func ttlOrDefault(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
