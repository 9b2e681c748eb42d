package models

// PreviewState is what the rendering surface consumes: which artifact is
// open in the preview pane and, for pdfs, at which page. A zero value
// means nothing is previewed.
type PreviewState struct {
	ActiveArtifactID string `json:"activeArtifactId,omitempty"`
	PageOrOffset     int    `json:"pageOrOffset,omitempty"`
}

// Active reports whether an artifact is currently previewed.
func (p PreviewState) Active() bool {
	return p.ActiveArtifactID != ""
}
