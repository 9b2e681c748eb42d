// Package preview owns the "currently previewed artifact" state the
// rendering surface consumes.
package preview

import (
	"sync"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// DefaultPage is where a pdf preview opens when the caller does not say.
const DefaultPage = 1

// Coordinator mutates PreviewState in response to citation activation or
// direct selection. Nothing else touches the state; in particular,
// uploads never clear an existing preview.
type Coordinator struct {
	mu    sync.RWMutex
	state models.PreviewState
}

// NewCoordinator starts with no preview.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// State returns the current preview state.
func (c *Coordinator) State() models.PreviewState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Activate repoints the preview at a resolved citation's jump target.
// Unresolved and free-text citations leave the active artifact as it
// was; the caller may surface a no-op indication, but that is the
// rendering layer's concern.
func (c *Coordinator) Activate(rc models.ResolvedCitation) bool {
	if rc.State != models.ResolvedArtifact {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.PreviewState{
		ActiveArtifactID: rc.Target.ArtifactID,
		PageOrOffset:     rc.Target.Page,
	}
	return true
}

// SetActive points the preview at an artifact directly (sidebar click
// rather than citation), resetting the page to the default.
func (c *Coordinator) SetActive(artifactID string) {
	c.SetActivePage(artifactID, DefaultPage)
}

// SetActivePage points the preview at an artifact at a specific page.
// The page is only meaningful for pdf artifacts; consumers ignore it for
// images.
func (c *Coordinator) SetActivePage(artifactID string, page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.PreviewState{ActiveArtifactID: artifactID, PageOrOffset: page}
}

// Clear resets to the no-preview state. Only explicit user action calls
// this; the session never clears a preview as a side effect.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.PreviewState{}
}
