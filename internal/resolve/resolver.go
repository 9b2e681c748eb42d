// Package resolve binds an answer's citations back onto concrete
// artifacts so the preview pane can jump to the exact page or image.
//
// Resolution is pure: it never mutates the artifact set and is
// recomputed on demand whenever the artifacts or the current answer
// change. A citation that cannot be bound degrades to an unresolved row;
// it never fails the batch.
package resolve

import "github.com/jenilparmar/chatbot-theme-identifier/internal/models"

// Resolve maps each citation to a ResolvedCitation against the given
// artifacts. Matching is by display name within the citation's kind;
// when several artifacts share a name the first by insertion order wins.
// The context slice is attached positionally (citation i gets
// context[i]) when lengths line up.
func Resolve(citations []models.Citation, context []string, artifacts []models.Artifact) []models.ResolvedCitation {
	out := make([]models.ResolvedCitation, 0, len(citations))
	for i, c := range citations {
		rc := resolveOne(c, artifacts)
		if i < len(context) {
			rc.Excerpt = context[i]
		}
		out = append(out, rc)
	}
	return out
}

func resolveOne(c models.Citation, artifacts []models.Artifact) models.ResolvedCitation {
	rc := models.ResolvedCitation{Citation: c, State: models.Unresolved}

	switch {
	case c.IsPDF():
		if a, ok := firstByName(artifacts, models.KindPDF, c.Source); ok {
			rc.State = models.ResolvedArtifact
			rc.Target = models.JumpTarget{ArtifactID: a.ID, Page: c.Page}
		}
	case c.Type == models.CitationImage:
		if a, ok := firstByName(artifacts, models.KindImage, c.Source); ok {
			rc.State = models.ResolvedArtifact
			rc.Target = models.JumpTarget{ArtifactID: a.ID}
		}
	case c.Type == models.CitationText:
		// Free text has no artifact; activation must not attempt a lookup.
		rc.State = models.ResolvedFreeText
	}
	return rc
}

func firstByName(artifacts []models.Artifact, kind models.ArtifactKind, name string) (models.Artifact, bool) {
	for _, a := range artifacts {
		if a.Kind == kind && a.DisplayName == name {
			return a, true
		}
	}
	return models.Artifact{}, false
}
