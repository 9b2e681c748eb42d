package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/testutil"
)

func TestAttachAndRemove(t *testing.T) {
	s := New(nil, nil, nil)

	id1 := s.Attach("a.pdf", models.KindPDF, []byte("pdf"))
	id2 := s.Attach("b.png", models.KindImage, []byte("png"))
	require.NotEmpty(t, id1)
	require.NotEmpty(t, id2)

	assert.Len(t, s.Artifacts(), 2)

	s.Remove(id1)
	got := s.Artifacts()
	require.Len(t, got, 1)
	assert.Equal(t, id2, got[0].ID)

	// Removing again is harmless.
	s.Remove(id1)
	assert.Len(t, s.Artifacts(), 1)
}

func TestToggleRemovedArtifactIgnored(t *testing.T) {
	s := New(nil, nil, nil)

	id := s.Attach("gone.pdf", models.KindPDF, []byte("pdf"))
	s.Remove(id)

	// Toggling a stale id must not record a deselection for it.
	s.Toggle(id)
	assert.True(t, s.IsSelected(id))
}

func TestAttachFileDerivesKind(t *testing.T) {
	s := New(nil, nil, nil)

	tests := []struct {
		name     string
		wantKind models.ArtifactKind
		wantOK   bool
	}{
		{"doc.pdf", models.KindPDF, true},
		{"photo.PNG", models.KindImage, true},
		{"notes.txt", models.KindText, true},
		{"archive.zip", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := s.AttachFile(tt.name, []byte("data"))
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				for _, a := range s.Artifacts() {
					if a.ID == id {
						assert.Equal(t, tt.wantKind, a.Kind)
						return
					}
				}
				t.Fatalf("attached artifact %s not listed", id)
			}
		})
	}
}

func TestUploadSendsOnlySelected(t *testing.T) {
	up := testutil.NewFakeUploader()
	up.Message = "1 PDF(s), 0 image(s), and text processed successfully."
	s := New(up, nil, nil)

	keep := s.Attach("keep.pdf", models.KindPDF, []byte("k"))
	skip := s.Attach("skip.pdf", models.KindPDF, []byte("s"))
	_ = keep
	s.Toggle(skip)
	s.SetFreeText("typed text")

	msg, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "processed successfully")

	parts := up.LastParts()
	require.Len(t, parts, 1)
	assert.Equal(t, "keep.pdf", parts[0].Artifact.DisplayName)
	assert.Equal(t, "typed text", up.LastFreeText())

	assert.Equal(t, msg, s.Status())
}

func TestUploadFailureKeepsArtifacts(t *testing.T) {
	up := testutil.NewFakeUploader()
	up.Err = errors.New("server down")
	s := New(up, nil, nil)

	s.Attach("a.pdf", models.KindPDF, []byte("x"))

	_, err := s.Upload(context.Background())
	require.Error(t, err)

	assert.Len(t, s.Artifacts(), 1, "failed upload must not drop local artifacts")
	assert.Equal(t, "Upload failed.", s.Status())
}

func TestAskForwardsQuestion(t *testing.T) {
	asker := &testutil.FakeAsker{}
	s := New(nil, asker, nil)

	require.NoError(t, s.Ask("what changed?"))
	require.NoError(t, s.Ask("   "))

	assert.Equal(t, []string{"what changed?"}, asker.Questions, "blank questions are not sent")
}

func TestOnAnswerResolvesAgainstArtifacts(t *testing.T) {
	s := New(nil, nil, nil)
	id := s.Attach("a.pdf", models.KindPDF, []byte("pdf"))

	s.OnAnswer(models.AnswerEvent{
		ResponseText: "answer",
		Citations: []models.Citation{
			{Type: models.CitationPDFScanned, Source: "a.pdf", Page: 5},
			{Type: models.CitationText, Source: models.FreeTextSource},
		},
		Context: []string{"chunk one", "chunk two"},
	})

	resolved := s.ResolvedCitations()
	require.Len(t, resolved, 2)
	assert.Equal(t, models.ResolvedArtifact, resolved[0].State)
	assert.Equal(t, id, resolved[0].Target.ArtifactID)
	assert.Equal(t, "chunk one", resolved[0].Excerpt)
	assert.Equal(t, models.ResolvedFreeText, resolved[1].State)
}

func TestOnAnswerReplacesWholesale(t *testing.T) {
	s := New(nil, nil, nil)
	s.Attach("a.pdf", models.KindPDF, nil)

	s.OnAnswer(models.AnswerEvent{
		Citations: []models.Citation{{Type: models.CitationPDFTyped, Source: "a.pdf", Page: 1}},
	})
	require.Len(t, s.ResolvedCitations(), 1)

	s.OnAnswer(models.AnswerEvent{ResponseText: "no sources this time"})
	assert.Empty(t, s.ResolvedCitations())
	assert.Equal(t, "no sources this time", s.Answer().ResponseText)
}

func TestCitationActivationSetsPreview(t *testing.T) {
	s := New(nil, nil, nil)
	id := s.Attach("a.pdf", models.KindPDF, []byte("pdf"))

	s.OnAnswer(models.AnswerEvent{
		Citations: []models.Citation{
			{Type: models.CitationPDFScanned, Source: "a.pdf", Page: 5},
		},
	})

	require.True(t, s.OnCitationActivate(0))

	st := s.Preview()
	assert.Equal(t, id, st.ActiveArtifactID)
	assert.Equal(t, 5, st.PageOrOffset)
}

func TestCitationActivationNoOps(t *testing.T) {
	s := New(nil, nil, nil)
	s.SetActivePreview("existing")

	s.OnAnswer(models.AnswerEvent{
		Citations: []models.Citation{
			{Type: models.CitationPDFTyped, Source: "missing.pdf", Page: 1},
			{Type: models.CitationText, Source: models.FreeTextSource},
		},
	})

	assert.False(t, s.OnCitationActivate(0), "unresolved citation")
	assert.False(t, s.OnCitationActivate(1), "free text citation")
	assert.False(t, s.OnCitationActivate(5), "out of range")
	assert.False(t, s.OnCitationActivate(-1), "negative index")

	assert.Equal(t, "existing", s.Preview().ActiveArtifactID)
}

func TestRemovalDowngradesResolution(t *testing.T) {
	s := New(nil, nil, nil)
	id := s.Attach("a.pdf", models.KindPDF, nil)

	s.OnAnswer(models.AnswerEvent{
		Citations: []models.Citation{{Type: models.CitationPDFTyped, Source: "a.pdf", Page: 2}},
	})
	require.Equal(t, models.ResolvedArtifact, s.ResolvedCitations()[0].State)

	s.Remove(id)

	resolved := s.ResolvedCitations()
	require.Len(t, resolved, 1)
	assert.Equal(t, models.Unresolved, resolved[0].State, "citations survive removal as unresolved rows")
}

func TestRemovalKeepsPreview(t *testing.T) {
	s := New(nil, nil, nil)
	id := s.Attach("a.pdf", models.KindPDF, nil)
	s.SetActivePreview(id)

	s.Remove(id)

	assert.Equal(t, id, s.Preview().ActiveArtifactID, "preview is never cleared implicitly")
}

func TestDispose(t *testing.T) {
	s := New(nil, nil, nil)
	s.Attach("a.pdf", models.KindPDF, []byte("pdf"))
	s.OnAnswer(models.AnswerEvent{ResponseText: "x"})

	s.Dispose()

	assert.Empty(t, s.Artifacts())
	assert.Nil(t, s.Answer())
	assert.Empty(t, s.ResolvedCitations())
	assert.Empty(t, s.Attach("late.pdf", models.KindPDF, nil), "disposed session rejects attaches")
}

func TestEndToEndUploadAskActivate(t *testing.T) {
	up := testutil.NewFakeUploader()
	up.Message = "1 PDF(s), 0 image(s), and text processed successfully."
	asker := &testutil.FakeAsker{}
	s := New(up, asker, nil)

	id, ok := s.AttachFile("a.pdf", []byte("pdf bytes"))
	require.True(t, ok)

	_, err := s.Upload(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Ask("what does a.pdf say?"))
	require.Len(t, asker.Questions, 1)

	// Answer arrives over the channel.
	s.OnAnswer(models.AnswerEvent{
		ResponseText: "it says hello",
		Citations: []models.Citation{
			{Type: models.CitationPDFScanned, Source: "a.pdf", Page: 5},
		},
		Context: []string{"hello excerpt"},
	})

	require.True(t, s.OnCitationActivate(0))
	st := s.Preview()
	assert.Equal(t, id, st.ActiveArtifactID)
	assert.Equal(t, 5, st.PageOrOffset)
}
