// Package script holds the static Phase 1 screening script: an ordered list
// of data-only question entries plus the fixed lines the interviewer speaks
// around them. Scripts are authored in YAML; the default script is embedded.
package script

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScript []byte

type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
	KindUpload Kind = "upload"
)

// Option is one selectable answer of a choice entry. An option with a Reject
// template is a gating dead end: picking it ends the flow.
type Option struct {
	ID      string   `yaml:"id" json:"id"`
	Label   string   `yaml:"label" json:"label"`
	Value   string   `yaml:"value,omitempty" json:"-"`
	Aliases []string `yaml:"aliases,omitempty" json:"-"`
	Reject  string   `yaml:"reject,omitempty" json:"-"`
}

// StoredValue is the canonical value recorded for the option.
func (o Option) StoredValue() string {
	if o.Value != "" {
		return o.Value
	}
	return o.Label
}

type Rules struct {
	Required  bool   `yaml:"required"`
	MinLength int    `yaml:"min_length"`
	MaxLength int    `yaml:"max_length"`
	Pattern   string `yaml:"pattern"`
	Transform string `yaml:"transform"`
	Message   string `yaml:"message"`

	pattern *regexp.Regexp
}

type Entry struct {
	ID           string   `yaml:"id"`
	Kind         Kind     `yaml:"kind"`
	Content      string   `yaml:"content"`
	Options      []Option `yaml:"options,omitempty"`
	DocumentType string   `yaml:"document_type,omitempty"`
	Label        string   `yaml:"label,omitempty"`
	Rules        Rules    `yaml:"rules,omitempty"`
}

// Messages are the interviewer lines that do not belong to a single entry.
type Messages struct {
	RepeatPrefix    string `yaml:"repeat_prefix"`
	Waiting         string `yaml:"waiting"`
	UploadPrompt    string `yaml:"upload_prompt"`
	UploadReceived  string `yaml:"upload_received"`
	UploadRetry     string `yaml:"upload_retry"`
	AnalysisSummary string `yaml:"analysis_summary"`
	Consent         string `yaml:"consent"`
	Decline         string `yaml:"decline"`
	Completion      string `yaml:"completion"`
	Closing         string `yaml:"closing"`
	Unsupported     string `yaml:"unsupported"`
}

type Script struct {
	// NameEntry is the id of the entry whose value personalises later lines.
	NameEntry string `yaml:"name_entry"`
	// AnalysisDocument is the document type whose analysis opens Phase 2.
	AnalysisDocument string `yaml:"analysis_document"`
	// Applicant maps applicant record fields to the entries that answer them.
	Applicant ApplicantFields `yaml:"applicant"`
	Entries   []Entry         `yaml:"entries"`
	Messages  Messages        `yaml:"messages"`
}

type ApplicantFields struct {
	Role            string `yaml:"role"`
	CareerGap       string `yaml:"career_gap"`
	ExperienceYears string `yaml:"experience_years"`
}

// Default returns the embedded screening script.
func Default() (*Script, error) {
	return Parse(defaultScript)
}

// Load reads a script from path, falling back to the embedded default when
// path is empty.
func Load(path string) (*Script, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if errs := s.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid script: %w", errs[0])
	}

	return &s, nil
}

// Check reports every structural problem in the script and compiles the
// validation patterns.
func (s *Script) Check() []error {
	var errs []error

	if len(s.Entries) == 0 {
		errs = append(errs, fmt.Errorf("script has no entries"))
	}

	seen := make(map[string]bool)
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("entry %d has no id", i))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("entry %q: duplicate id", e.ID))
		}
		seen[e.ID] = true

		if e.Content == "" {
			errs = append(errs, fmt.Errorf("entry %q: empty content", e.ID))
		}

		switch e.Kind {
		case KindText:
		case KindChoice:
			if len(e.Options) == 0 {
				errs = append(errs, fmt.Errorf("entry %q: choice without options", e.ID))
			}
		case KindUpload:
			if e.DocumentType == "" {
				errs = append(errs, fmt.Errorf("entry %q: upload without document_type", e.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("entry %q: unknown kind %q", e.ID, e.Kind))
		}

		if e.Rules.Pattern != "" {
			re, err := regexp.Compile(e.Rules.Pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %q: bad pattern: %w", e.ID, err))
			} else {
				e.Rules.pattern = re
			}
		}
	}

	if s.NameEntry != "" && !seen[s.NameEntry] {
		errs = append(errs, fmt.Errorf("name_entry %q is not an entry", s.NameEntry))
	}

	for field, id := range map[string]string{
		"role":             s.Applicant.Role,
		"career_gap":       s.Applicant.CareerGap,
		"experience_years": s.Applicant.ExperienceYears,
	} {
		if id != "" && !seen[id] {
			errs = append(errs, fmt.Errorf("applicant.%s %q is not an entry", field, id))
		}
	}

	if s.AnalysisDocument != "" && s.EntryForDocument(s.AnalysisDocument) == nil {
		errs = append(errs, fmt.Errorf("analysis_document %q has no upload entry", s.AnalysisDocument))
	}

	return errs
}

func (s *Script) Len() int {
	return len(s.Entries)
}

// At returns the entry at index i, or nil past the end.
func (s *Script) At(i int) *Entry {
	if i < 0 || i >= len(s.Entries) {
		return nil
	}
	return &s.Entries[i]
}

func (s *Script) EntryForDocument(documentType string) *Entry {
	for i := range s.Entries {
		if s.Entries[i].Kind == KindUpload && s.Entries[i].DocumentType == documentType {
			return &s.Entries[i]
		}
	}
	return nil
}

// DocumentLabel is the spoken name of a document type ("resume", "cover letter").
func (s *Script) DocumentLabel(documentType string) string {
	if e := s.EntryForDocument(documentType); e != nil && e.Label != "" {
		return e.Label
	}
	return documentType
}

// Gating reports whether any option of the entry is a dead end.
func (e *Entry) Gating() bool {
	for _, o := range e.Options {
		if o.Reject != "" {
			return true
		}
	}
	return false
}
