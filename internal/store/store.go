// Package store holds the session's uploaded artifacts and their stable
// identities. It is the only owner of artifact payload bytes.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Store is an insertion-ordered artifact set keyed by session-unique
// ids. IDs are uuids, so they are never reused after removal and never
// collide when two files share a display name.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]*entry
	order     []string
}

type entry struct {
	info    models.Artifact
	payload []byte
}

// New creates an empty artifact store.
func New() *Store {
	return &Store{artifacts: make(map[string]*entry)}
}

// Add registers an artifact and takes ownership of its payload bytes.
// Returns the assigned id.
func (s *Store) Add(displayName string, kind models.ArtifactKind, payload []byte) string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[id] = &entry{
		info: models.Artifact{
			ID:          id,
			DisplayName: displayName,
			Kind:        kind,
			Size:        int64(len(payload)),
			AddedAt:     time.Now(),
		},
		payload: payload,
	}
	s.order = append(s.order, id)
	return id
}

// Remove deletes an artifact and releases its payload. Removing an
// absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[id]; !ok {
		return
	}
	delete(s.artifacts, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get retrieves artifact metadata by id.
func (s *Store) Get(id string) (models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.artifacts[id]
	if !ok {
		return models.Artifact{}, fmt.Errorf("artifact not found: %s", id)
	}
	return e.info, nil
}

// Payload returns the raw bytes of an artifact. The caller must not
// retain the slice past the artifact's lifetime.
func (s *Store) Payload(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact not found: %s", id)
	}
	return e.payload, nil
}

// List returns all artifacts in insertion order.
func (s *Store) List() []models.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Artifact, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.artifacts[id].info)
	}
	return list
}

// IDs returns the current ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len reports the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear drops every artifact and its payload.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = make(map[string]*entry)
	s.order = nil
}
