package extract

import (
	"strings"
	"unicode/utf8"
)

// separators tried in order when a piece is still too large: paragraph
// breaks first, then lines, then words, then raw runes.
var separators = []string{"\n\n", "\n", " ", ""}

// SplitText splits text into chunks of at most chunkSize characters,
// preferring natural boundaries, with roughly overlap characters of
// trailing context carried into each following chunk.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	pieces := splitRecursive(text, chunkSize, separators)
	return mergePieces(pieces, chunkSize, overlap)
}

// splitRecursive breaks text into pieces no larger than chunkSize using
// the deepest separator necessary.
func splitRecursive(text string, chunkSize int, seps []string) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		// No separator left: hard cut on a rune boundary.
		var out []string
		for len(text) > chunkSize {
			cut := chunkSize
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(text)
			}
			out = append(out, text[:cut])
			text = text[cut:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	sep := seps[0]
	if sep == "" {
		return splitRecursive(text, chunkSize, nil)
	}

	var out []string
	for _, part := range strings.Split(text, sep) {
		if part == "" {
			continue
		}
		if len(part) > chunkSize {
			out = append(out, splitRecursive(part, chunkSize, seps[1:])...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// mergePieces greedily packs pieces into chunks up to chunkSize, seeding
// each chunk after the first with the tail of its predecessor.
func mergePieces(pieces []string, chunkSize, overlap int) []string {
	var chunks []string
	var cur strings.Builder
	seeded := 0 // length of carried-over overlap at the chunk's start

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		if overlap > 0 && len(chunks) > 0 {
			prev := chunks[len(chunks)-1]
			if len(prev) > overlap {
				start := len(prev) - overlap
				for start < len(prev) && !utf8.RuneStart(prev[start]) {
					start++
				}
				prev = prev[start:]
			}
			cur.WriteString(prev)
		}
		seeded = cur.Len()
	}

	for _, p := range pieces {
		if cur.Len() > seeded && cur.Len()+1+len(p) > chunkSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(p)
	}
	if cur.Len() > seeded {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
	}
	return chunks
}
