// Package dedup provides the in-memory mint registry that guarantees
// at-most-one admission per mint for the process lifetime, regardless
// of how many transports or log lines mention it.
package dedup

import "sync"

// Registry records every mint the engine has ever accepted for
// processing. Marking is first-wins: concurrent TryMark calls for the
// same mint admit exactly one caller.
type Registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// TryMark records the mint and reports whether this call was the first
// to do so. A false return means another event already claimed it.
func (r *Registry) TryMark(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[mint]; ok {
		return false
	}
	r.seen[mint] = struct{}{}
	return true
}

// Seen reports whether the mint has been marked.
func (r *Registry) Seen(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[mint]
	return ok
}

// Unmark removes a mint so a later event may claim it again. Used when
// admission failed without judging the token: a full work queue, a
// facts outage, or a failed acquisition.
func (r *Registry) Unmark(mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, mint)
}

// Len returns the number of marked mints.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
