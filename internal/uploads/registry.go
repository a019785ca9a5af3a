// Package uploads tracks photo keys that were handed out for upload but not
// yet referenced by any account. Entries older than a grace window are
// orphans and get swept.
package uploads

import (
	"context"
	"time"
)

const pendingSet = "uploads:pending"

// SortedSet is the slice of redis the registry needs.
type SortedSet interface {
	AddIfAbsent(ctx context.Context, set, member string, score float64) error
	Rescore(ctx context.Context, set, member string, score float64) error
	Remove(ctx context.Context, set string, members ...string) error
	ScoredBelow(ctx context.Context, set string, max float64, limit int64) ([]string, error)
}

// Registry is nil-safe: a nil *Registry tracks nothing, which is how the
// API runs when redis is not configured.
type Registry struct {
	set SortedSet
	now func() time.Time
}

func NewRegistry(set SortedSet) *Registry {
	return &Registry{set: set, now: time.Now}
}

// Track records key as pending. Re-presigning the same key keeps the first
// timestamp.
func (r *Registry) Track(ctx context.Context, key string) error {
	if r == nil {
		return nil
	}
	return r.set.AddIfAbsent(ctx, pendingSet, key, float64(r.now().Unix()))
}

// Confirm drops key from the pending set once an account references it.
func (r *Registry) Confirm(ctx context.Context, key string) error {
	if r == nil {
		return nil
	}
	return r.set.Remove(ctx, pendingSet, key)
}

// Postpone moves a still-pending key to the back of the queue. A key the
// sweeper keeps failing on then stops shadowing newer orphans.
func (r *Registry) Postpone(ctx context.Context, key string) error {
	if r == nil {
		return nil
	}
	return r.set.Rescore(ctx, pendingSet, key, float64(r.now().Unix()))
}

// Expired lists pending keys tracked at or before cutoff.
func (r *Registry) Expired(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	return r.set.ScoredBelow(ctx, pendingSet, float64(cutoff.Unix()), int64(limit))
}
