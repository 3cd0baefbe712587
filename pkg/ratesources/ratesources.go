package ratesources

import (
	"sync"
)

// Source is one BCV rate mirror.
type Source struct {
	Name string
	URL  string
}

// Rotation hands out mirrors round-robin so a flaky mirror does not get
// hammered on every refresh tick.
type Rotation struct {
	sources []Source
	mu      sync.Mutex
	current int
}

func NewRotation(sources []Source) *Rotation {
	return &Rotation{
		sources: sources,
		current: 0,
	}
}

// Next returns the next mirror in rotation. ok is false when the rotation
// was built empty.
func (r *Rotation) Next() (Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sources) == 0 {
		return Source{}, false
	}
	src := r.sources[r.current]
	r.current = (r.current + 1) % len(r.sources)
	return src, true
}

// Len reports how many mirrors the rotation holds, which is also the number
// of attempts one refresh should make before giving up.
func (r *Rotation) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}
