// Package session owns the engine state for one interactive session: the
// artifact store, the selection tracker, the preview coordinator, the
// current answer, and its resolved citations.
//
// All mutation funnels through a small set of reducer-style entry points
// (attach/remove/toggle, OnUploadAck, OnAnswer, OnCitationActivate), each
// serialized by one mutex so the observable ordering matches a
// single-threaded event loop: every event runs to completion before the
// next one is processed. No ambient globals; callers hold a *Session.
package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/client"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/preview"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/resolve"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/selection"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/store"
)

// Uploader is the outward edge Submit goes through. *client.Uploader
// implements it; tests substitute counting doubles.
type Uploader interface {
	Submit(ctx context.Context, parts []client.Part, freeText string) (string, error)
}

// Asker is the outward edge questions go through.
type Asker interface {
	Ask(question string) error
}

// Session is the engine state for one user session.
type Session struct {
	log *zap.Logger

	mu        sync.Mutex
	artifacts *store.Store
	selection *selection.Tracker
	preview   *preview.Coordinator
	uploader  Uploader
	channel   Asker

	freeText string
	answer   *models.AnswerEvent
	resolved []models.ResolvedCitation
	status   string // last user-visible status text (ack or failure)
	disposed bool
}

// New creates an initialized session. Both collaborators may be nil for
// sessions that only exercise local state (tests, previews of local
// files).
func New(uploader Uploader, channel Asker, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		log:       log,
		artifacts: store.New(),
		selection: selection.NewTracker(),
		preview:   preview.NewCoordinator(),
		uploader:  uploader,
		channel:   channel,
	}
}

// Attach adds an artifact optimistically on local selection: the store
// reflects user intent before (and regardless of) upload success.
// Returns the assigned id.
func (s *Session) Attach(displayName string, kind models.ArtifactKind, payload []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ""
	}

	id := s.artifacts.Add(displayName, kind, payload)
	s.recomputeLocked()
	return id
}

// AttachFile adds a file whose kind is derived from its extension.
// Unrecognized extensions are ignored.
func (s *Session) AttachFile(name string, payload []byte) (string, bool) {
	kind, ok := models.KindForFile(name)
	if !ok {
		return "", false
	}
	return s.Attach(name, kind, payload), true
}

// Remove deletes an artifact, prunes its selection flag, and recomputes
// citation resolution. The preview is not cleared even if it pointed at
// the removed artifact; the rendering surface decides what a dangling
// preview shows.
func (s *Session) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifacts.Remove(id)
	s.selection.Prune(s.artifacts.IDs())
	s.recomputeLocked()
}

// Toggle flips an artifact's inclusion flag for the next upload. Ids
// not present in the store are ignored so the tracker never grows
// entries for removed artifacts.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.artifacts.Get(id); err != nil {
		return
	}
	s.selection.Toggle(id)
}

// IsSelected reports an artifact's inclusion flag (default true).
func (s *Session) IsSelected(id string) bool {
	return s.selection.IsSelected(id)
}

// SetFreeText replaces the free-typed text submitted with uploads.
func (s *Session) SetFreeText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freeText = text
}

// Artifacts lists the stored artifacts in insertion order.
func (s *Session) Artifacts() []models.Artifact {
	return s.artifacts.List()
}

// SelectedArtifacts lists the artifacts currently scoped for upload.
func (s *Session) SelectedArtifacts() []models.Artifact {
	return s.selection.Selected(s.artifacts.List())
}

// Upload submits the selected artifacts plus free text and feeds the
// acknowledgment through OnUploadAck. The store is never mutated on
// failure: the files remain locally available for retry.
func (s *Session) Upload(ctx context.Context) (string, error) {
	s.mu.Lock()
	selected := s.selection.Selected(s.artifacts.List())
	parts := make([]client.Part, 0, len(selected))
	for _, a := range selected {
		data, err := s.artifacts.Payload(a.ID)
		if err != nil {
			continue // removed between list and read; skip
		}
		parts = append(parts, client.Part{Artifact: a, Data: data})
	}
	freeText := s.freeText
	uploader := s.uploader
	s.mu.Unlock()

	if uploader == nil {
		return "", client.ErrUploadFailed
	}

	msg, err := uploader.Submit(ctx, parts, freeText)
	if err != nil {
		s.mu.Lock()
		s.status = "Upload failed."
		s.mu.Unlock()
		return "", err
	}

	s.OnUploadAck(msg)
	return msg, nil
}

// Ask submits a question over the query channel.
func (s *Session) Ask(question string) error {
	if strings.TrimSpace(question) == "" {
		return nil
	}

	s.mu.Lock()
	channel := s.channel
	s.mu.Unlock()

	if channel == nil {
		return client.ErrChannelUnavailable
	}
	return channel.Ask(question)
}

// OnUploadAck records the server's acknowledgment as status text. The
// artifact set already reflects the user's selections; acknowledgment
// handling does not add or remove anything.
func (s *Session) OnUploadAck(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = message
	s.log.Debug("upload acknowledged", zap.String("message", message))
}

// OnAnswer installs a new answer event, replacing the previous one
// wholesale, and recomputes citation resolution against the current
// artifacts. Answers are applied in arrival order regardless of which
// question produced them.
func (s *Session) OnAnswer(ev models.AnswerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answer = &ev
	s.recomputeLocked()
}

// OnCitationActivate repoints the preview at the i-th resolved citation
// of the current answer. Out-of-range indexes and unresolved or
// free-text citations leave the preview untouched.
func (s *Session) OnCitationActivate(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.resolved) {
		return false
	}
	return s.preview.Activate(s.resolved[i])
}

// SetActivePreview points the preview at an artifact directly.
func (s *Session) SetActivePreview(artifactID string) {
	s.preview.SetActive(artifactID)
}

// Answer returns the current answer event, or nil before the first one.
func (s *Session) Answer() *models.AnswerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer
}

// ResolvedCitations returns the current answer's citations bound to
// artifacts. The slice is recomputed on every artifact or answer change.
func (s *Session) ResolvedCitations() []models.ResolvedCitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ResolvedCitation(nil), s.resolved...)
}

// Preview returns the current preview state.
func (s *Session) Preview() models.PreviewState {
	return s.preview.State()
}

// Status returns the last user-visible status text.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Dispose releases artifact payloads. The session must not be used
// afterwards; lifecycle is init at session start, dispose at end.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
	s.artifacts.Clear()
	s.selection.Prune(nil)
	s.answer = nil
	s.resolved = nil
}

// recomputeLocked rebinds the current answer's citations to the current
// artifact set. Caller holds s.mu.
func (s *Session) recomputeLocked() {
	if s.answer == nil {
		s.resolved = nil
		return
	}
	s.resolved = resolve.Resolve(s.answer.Citations, s.answer.Context, s.artifacts.List())
}
