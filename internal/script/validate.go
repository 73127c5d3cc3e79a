package script

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the outcome of validating one answer. Message is a template and
// must be rendered with Render before it is spoken.
type Result struct {
	Valid   bool
	Value   string
	Message string
	// DeadEnd marks a gating rejection after which the flow does not continue.
	DeadEnd bool
}

const defaultInvalid = "Sorry, I didn't understand that. Could you please answer again?"

// Validate checks a raw answer against the entry. It is pure: the same answer
// always yields the same result. Upload entries are not validated here.
func (e *Entry) Validate(answer string) Result {
	answer = strings.Join(strings.Fields(answer), " ")

	switch e.Kind {
	case KindChoice:
		return e.validateChoice(answer)
	case KindText:
		return e.validateText(answer)
	default:
		return Result{Valid: false, Message: e.invalidMessage()}
	}
}

func (e *Entry) validateText(answer string) Result {
	r := e.Rules
	n := utf8.RuneCountInString(answer)

	if answer == "" {
		if r.Required {
			return Result{Message: e.invalidMessage()}
		}
		return Result{Valid: true}
	}
	if r.MinLength > 0 && n < r.MinLength {
		return Result{Message: e.invalidMessage()}
	}
	if r.MaxLength > 0 && n > r.MaxLength {
		return Result{Message: e.invalidMessage()}
	}
	if r.pattern != nil && !r.pattern.MatchString(answer) {
		return Result{Message: e.invalidMessage()}
	}

	return Result{Valid: true, Value: transform(r.Transform, answer)}
}

func (e *Entry) validateChoice(answer string) Result {
	opt := e.Match(answer)
	if opt == nil {
		return Result{Message: e.invalidMessage()}
	}
	if opt.Reject != "" {
		return Result{Message: opt.Reject, DeadEnd: true}
	}
	return Result{Valid: true, Value: opt.StoredValue()}
}

// Match finds the option an answer refers to: its id, label, stored value or
// one of its aliases, compared loosely so spoken answers match too.
func (e *Entry) Match(answer string) *Option {
	want := normalize(answer)
	if want == "" {
		return nil
	}

	for i := range e.Options {
		o := &e.Options[i]
		if strings.EqualFold(o.ID, answer) {
			return o
		}
		candidates := append([]string{o.Label, o.Value}, o.Aliases...)
		for _, c := range candidates {
			if c != "" && normalize(c) == want {
				return o
			}
		}
	}

	return nil
}

func (e *Entry) invalidMessage() string {
	if e.Rules.Message != "" {
		return e.Rules.Message
	}
	return defaultInvalid
}

func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '+':
			b.WriteString(" plus")
		default:
			space = true
		}
	}
	return b.String()
}

func transform(kind, value string) string {
	switch kind {
	case "title":
		return cases.Title(language.English).String(value)
	case "lower":
		return strings.ToLower(value)
	case "upper":
		return strings.ToUpper(value)
	default:
		return value
	}
}
