package models

import (
	"path/filepath"
	"strings"
	"time"
)

// ArtifactKind classifies an uploaded unit.
type ArtifactKind string

const (
	KindPDF   ArtifactKind = "pdf"
	KindImage ArtifactKind = "image"
	KindText  ArtifactKind = "text"
)

// Artifact represents one uploaded unit (a PDF, an image, or free text).
// The payload bytes are owned by the artifact store and are not part of
// this struct; ID is the only handle other components may hold on to.
// IDs are unique for the lifetime of the session even when display names
// collide.
type Artifact struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Kind        ArtifactKind `json:"kind"`
	Size        int64        `json:"size"`
	AddedAt     time.Time    `json:"addedAt"`
}

// KindForFile guesses the artifact kind from a file name extension.
func KindForFile(name string) (ArtifactKind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, true
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp":
		return KindImage, true
	case ".txt", ".md", ".markdown":
		return KindText, true
	}
	return "", false
}
