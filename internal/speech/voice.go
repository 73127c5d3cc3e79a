package speech

import (
	"strings"
	"unicode"
)

// Fixed delivery settings tuned for clarity.
const (
	DefaultRate   = 0.95
	DefaultPitch  = 1.05
	DefaultVolume = 1.0
)

var (
	femaleNames = []string{
		"female", "woman", "samantha", "karen", "moira", "tessa", "veena", "serena",
		"kate", "susan", "hazel", "libby", "sonia", "neerja", "heera", "kalpana",
		"fiona", "victoria", "zira", "aria", "jenny", "emma", "amy",
	}
	maleNames = []string{
		"male", "man", "david", "george", "daniel", "rishi", "ravi", "arthur",
		"fred", "alex", "ryan", "guy", "thomas", "oliver", "prabhat", "mark",
	}
)

// SelectVoice prefers a female British or Indian English voice, then any
// English voice that is not male, and otherwise returns nil so the platform
// default is used.
func SelectVoice(voices []Voice) *Voice {
	for i := range voices {
		v := &voices[i]
		if isRegionalEnglish(v.Lang) && hasHint(v.Name, femaleNames) {
			return v
		}
	}
	for i := range voices {
		v := &voices[i]
		if isEnglish(v.Lang) && !hasHint(v.Name, maleNames) {
			return v
		}
	}
	return nil
}

func isEnglish(lang string) bool {
	return strings.HasPrefix(strings.ToLower(lang), "en")
}

func isRegionalEnglish(lang string) bool {
	l := strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
	return l == "en-gb" || l == "en-in"
}

// hasHint matches whole words so "female" never counts as "male".
func hasHint(name string, hints []string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, h := range hints {
			if w == h {
				return true
			}
		}
	}
	return false
}
