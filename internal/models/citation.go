package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CitationType mirrors the `type` field the retrieval side attaches to
// each chunk's metadata.
type CitationType string

const (
	CitationPDFTyped   CitationType = "pdf_typed"
	CitationPDFScanned CitationType = "pdf_scanned"
	CitationImage      CitationType = "image"
	CitationText       CitationType = "text"
)

// FreeTextSource is the sentinel `source` value for citations that point
// at the user's free-typed text rather than an uploaded file.
const FreeTextSource = "user_text"

// PageUnknown marks a pdf citation whose page number was absent or not
// numeric. Pages are 1-based, so zero is never a valid page.
const PageUnknown = 0

// Citation is one entry of a chat response's `sources` array. Source
// names the originating artifact by display name (or FreeTextSource for
// free text); Page is meaningful only for the pdf_* types.
type Citation struct {
	Type   CitationType `json:"type"`
	Source string       `json:"source"`
	Page   int          `json:"page,omitempty"`
}

// IsPDF reports whether the citation points into a paginated document.
func (c Citation) IsPDF() bool {
	return c.Type == CitationPDFTyped || c.Type == CitationPDFScanned
}

// UnmarshalJSON tolerates page numbers arriving as JSON numbers, numeric
// strings, or not at all; anything else degrades to PageUnknown instead
// of failing the whole sources array.
func (c *Citation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   string          `json:"type"`
		Source string          `json:"source"`
		Page   json.RawMessage `json:"page"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Type = CitationType(raw.Type)
	c.Source = raw.Source
	c.Page = parsePage(raw.Page)
	return nil
}

func parsePage(raw json.RawMessage) int {
	if len(raw) == 0 {
		return PageUnknown
	}
	s := strings.Trim(string(raw), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return PageUnknown
	}
	return n
}

// AnswerEvent is one response to one question. A new question supersedes
// the previous event wholesale; nothing is merged. Citations and Context
// correlate positionally: citation i is justified by Context[i].
type AnswerEvent struct {
	ResponseText string     `json:"response"`
	Citations    []Citation `json:"sources"`
	Context      []string   `json:"context"`
}

// ResolutionState says how a citation was bound to the artifact set.
type ResolutionState int

const (
	// ResolvedArtifact means Target points at a concrete artifact.
	ResolvedArtifact ResolutionState = iota
	// ResolvedFreeText means the citation refers to the user's typed
	// text; there is no artifact to jump to.
	ResolvedFreeText
	// Unresolved means no artifact matched (or the type was unknown);
	// the raw Source is kept for display.
	Unresolved
)

// JumpTarget is the concrete destination a resolved citation activates.
type JumpTarget struct {
	ArtifactID string
	Page       int // PageUnknown unless the artifact is a pdf
}

// ResolvedCitation is a Citation bound against the current artifact set.
// Ephemeral: recomputed whenever the artifact set or the current answer
// changes, never stored.
type ResolvedCitation struct {
	Citation Citation
	State    ResolutionState
	Target   JumpTarget
	Excerpt  string // context entry at the citation's position, if any
}
