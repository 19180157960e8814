package service

import (
	"context"
	"sync"
	"time"

	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/throttle"
)

const (
	// draftWriteTimeout bounds a deferred write, which outlives the request
	// that queued it.
	draftWriteTimeout = 10 * time.Second

	// sweepMin is the number of tracked drafts at which idle throttlers are
	// first swept.
	sweepMin = 64
)

type draftWrite struct {
	formID string
	userID string
	data   map[string]any
	meta   models.DraftMetadata
}

// Autosaver throttles draft writes per (form, respondent) so that bursts of
// saves reach the store at most once per window. The last write wins.
type Autosaver struct {
	drafts *DraftService
	delay  time.Duration

	mu      sync.Mutex
	savers  map[string]*throttle.Throttler[draftWrite]
	sweepAt int
	closed  bool
}

func NewAutosaver(drafts *DraftService, delay time.Duration) *Autosaver {
	return &Autosaver{
		drafts:  drafts,
		delay:   delay,
		savers:  make(map[string]*throttle.Throttler[draftWrite]),
		sweepAt: sweepMin,
	}
}

// Save queues a draft write. It runs immediately unless a write for the same
// draft ran within the window.
func (a *Autosaver) Save(formID, userID string, data map[string]any, meta models.DraftMetadata) {
	key := models.DraftID(formID, userID)
	w := draftWrite{formID: formID, userID: userID, data: data, meta: meta}
	for {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		t, ok := a.savers[key]
		if !ok {
			a.sweepLocked()
			a.savers[key] = throttle.New(a.write, a.delay)
			a.mu.Unlock()
			// the first save of a draft is never deferred
			a.write(w)
			return
		}
		a.mu.Unlock()
		if t.Call(w) {
			return
		}
		// t was swept or deleted after the lookup
	}
}

// sweepLocked drops throttlers whose window has passed with nothing queued.
// It runs each time the map doubles, so its cost is amortized over saves.
func (a *Autosaver) sweepLocked() {
	if len(a.savers) < a.sweepAt {
		return
	}
	for key, t := range a.savers {
		if t.StopIfIdle() {
			delete(a.savers, key)
		}
	}
	a.sweepAt = max(2*len(a.savers), sweepMin)
}

// Pending reports whether a write for the draft is waiting for its window.
func (a *Autosaver) Pending(formID, userID string) bool {
	a.mu.Lock()
	t, ok := a.savers[models.DraftID(formID, userID)]
	a.mu.Unlock()
	return ok && t.Pending()
}

// DeleteDraft drops any queued write for the draft before deleting it, so
// that a trailing save cannot resurrect a submitted draft.
func (a *Autosaver) DeleteDraft(ctx context.Context, formID, userID string) bool {
	key := models.DraftID(formID, userID)
	a.mu.Lock()
	if t, ok := a.savers[key]; ok {
		t.Stop()
		delete(a.savers, key)
	}
	a.mu.Unlock()
	return a.drafts.DeleteDraft(ctx, formID, userID)
}

// Close flushes every queued write and drops all throttlers. Later saves are
// ignored.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	savers := a.savers
	a.savers = make(map[string]*throttle.Throttler[draftWrite])
	a.mu.Unlock()

	for _, t := range savers {
		t.Flush()
		t.Stop()
	}
}

func (a *Autosaver) write(w draftWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
	defer cancel()
	a.drafts.SaveDraft(ctx, w.formID, w.userID, w.data, w.meta)
}
