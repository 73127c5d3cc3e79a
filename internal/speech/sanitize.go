package speech

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize prepares decorative interviewer text for synthesis: pictographs and
// emoji are dropped, list bullets removed, and every line break becomes a
// sentence break so the voice pauses between lines.
func Sanitize(text string) string {
	text = norm.NFKC.String(text)

	var b strings.Builder
	for _, r := range text {
		if isPictographic(r) {
			continue
		}
		b.WriteRune(r)
	}

	lines := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '\n' || r == '\r' })
	sentences := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		line = strings.TrimLeft(line, "-*•·> ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sentences = append(sentences, line)
	}

	for i := 0; i < len(sentences)-1; i++ {
		if !endsSentence(sentences[i]) {
			sentences[i] += "."
		}
	}

	return strings.Join(sentences, " ")
}

func endsSentence(s string) bool {
	last := s[len(s)-1]
	return strings.IndexByte(".!?:;,", last) >= 0
}

func isPictographic(r rune) bool {
	switch {
	case r == '\u200d', r == '\u20e3':
		return true
	case r >= 0xfe00 && r <= 0xfe0f:
		return true
	case r >= 0x1f000 && r <= 0x1faff:
		return true
	case r >= 0x2600 && r <= 0x27bf:
		return true
	case r >= 0x1f1e6 && r <= 0x1f1ff:
		return true
	case r >= 0xe0020 && r <= 0xe007f:
		return true
	}
	return unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r) && r > 0xff
}
