package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits role reference material into pieces small enough to
// embed one at a time.
type TextChunker interface {
	Chunk(text string) []string
}

type paragraphChunker struct {
	maxRunes int
	overlap  int
}

// NewTextChunker packs whole paragraphs into chunks of at most maxRunes.
// Each chunk after the first repeats the tail of the previous one.
func NewTextChunker(maxRunes, overlap int) TextChunker {
	if maxRunes <= 0 {
		maxRunes = 1000
	}
	if overlap < 0 || overlap >= maxRunes {
		overlap = maxRunes / 4
	}
	return &paragraphChunker{maxRunes: maxRunes, overlap: overlap}
}

func (c *paragraphChunker) Chunk(text string) []string {
	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= c.maxRunes {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, c.splitLong(para)...)
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, cur.String())
		tail := lastRunes(cur.String(), c.overlap)
		cur.Reset()
		cur.WriteString(tail)
	}

	for _, p := range pieces {
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(p)+2 > c.maxRunes {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 && (len(chunks) == 0 || cur.String() != lastRunes(chunks[len(chunks)-1], c.overlap)) {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitLong cuts an oversized paragraph at sentence ends, then hard-wraps
// any sentence that is still too long.
func (c *paragraphChunker) splitLong(para string) []string {
	var out []string
	var cur strings.Builder
	for _, sentence := range splitSentences(para) {
		for utf8.RuneCountInString(sentence) > c.maxRunes {
			r := []rune(sentence)
			out = append(out, string(r[:c.maxRunes]))
			sentence = string(r[c.maxRunes:])
		}
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(sentence)+1 > c.maxRunes {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sentence)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// splitSentences keeps the terminating punctuation with its sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[len(r)-n:])
}
