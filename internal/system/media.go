package system

import (
	"context"
	"sync"
	"time"

	"themekeeper/internal/debug"
)

// MediaQuery tracks whether the system prefers a dark color scheme and
// notifies subscribers when that changes.
type MediaQuery struct {
	detectors []Detector

	mu        sync.Mutex
	matches   bool
	source    string
	nextID    int
	listeners map[int]func(bool)
}

// NewMediaQuery evaluates detectors in order; the first conclusive one wins.
// With no conclusive detector the query does not match (light).
func NewMediaQuery(detectors ...Detector) *MediaQuery {
	q := &MediaQuery{
		detectors: detectors,
		listeners: make(map[int]func(bool)),
	}
	q.matches, q.source = q.evaluate()
	return q
}

func (q *MediaQuery) evaluate() (bool, string) {
	for _, d := range q.detectors {
		if dark, ok := d.Detect(); ok {
			return dark, d.Name()
		}
	}
	return false, ""
}

// Matches reports whether the system currently prefers dark.
func (q *MediaQuery) Matches() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.matches
}

// Source names the detector that produced the current value, or "" for the fallback.
func (q *MediaQuery) Source() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.source
}

// OnChange registers fn for preference changes and returns its unsubscribe func.
func (q *MediaQuery) OnChange(fn func(bool)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextID
	q.nextID++
	q.listeners[id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners, id)
	}
}

// Refresh re-runs the detectors and notifies listeners if the value changed.
// It returns the current value.
func (q *MediaQuery) Refresh() bool {
	dark, source := q.evaluate()

	q.mu.Lock()
	changed := dark != q.matches
	q.matches, q.source = dark, source
	var fns []func(bool)
	if changed {
		for _, fn := range q.listeners {
			fns = append(fns, fn)
		}
	}
	q.mu.Unlock()

	if changed {
		debug.Logf("system color scheme changed: dark=%v source=%q", dark, source)
	}
	for _, fn := range fns {
		fn(dark)
	}
	return dark
}

// Watch calls Refresh every interval until ctx is done. A non-positive
// interval returns immediately.
func (q *MediaQuery) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Refresh()
		}
	}
}
