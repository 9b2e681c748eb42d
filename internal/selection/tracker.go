// Package selection tracks the per-artifact inclusion flag that scopes
// the next upload. Artifacts are included by default; the map only holds
// entries the user actually toggled, so its size tracks interactions,
// not artifact count.
package selection

import (
	"sync"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Tracker records which artifacts are selected for upload.
type Tracker struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewTracker creates a tracker with nothing toggled (everything selected).
func NewTracker() *Tracker {
	return &Tracker{flags: make(map[string]bool)}
}

// IsSelected reports the inclusion flag for an id. Ids never toggled
// default to true.
func (t *Tracker) IsSelected(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.flags[id]
	if !ok {
		return true
	}
	return v
}

// Toggle flips the inclusion flag. The first toggle of an id inserts the
// negation of the default. Toggling an id no longer in the store is
// harmless; Prune clears it later.
func (t *Tracker) Toggle(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.flags[id]
	if !ok {
		t.flags[id] = false
		return
	}
	t.flags[id] = !v
}

// Selected filters the given artifacts down to the currently selected
// ones, preserving order. Membership in the passed slice is the source
// of truth for store membership.
func (t *Tracker) Selected(artifacts []models.Artifact) []models.Artifact {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []models.Artifact
	for _, a := range artifacts {
		v, ok := t.flags[a.ID]
		if !ok || v {
			out = append(out, a)
		}
	}
	return out
}

// Prune drops flags for ids not in the live set, keeping the map a
// subset of current store ids.
func (t *Tracker) Prune(live []string) {
	alive := make(map[string]struct{}, len(live))
	for _, id := range live {
		alive[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.flags {
		if _, ok := alive[id]; !ok {
			delete(t.flags, id)
		}
	}
}
