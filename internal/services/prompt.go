package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/voice-screener/internal/models"
)

type PromptBuilder struct {
	technicalCount  int
	behavioralCount int
}

func NewPromptBuilder(technicalCount, behavioralCount int) *PromptBuilder {
	if technicalCount <= 0 {
		technicalCount = 3
	}
	if behavioralCount <= 0 {
		behavioralCount = 2
	}
	return &PromptBuilder{technicalCount: technicalCount, behavioralCount: behavioralCount}
}

// BuildResumePrompt asks for validation, analysis and the Phase 2 question set.
func (pb *PromptBuilder) BuildResumePrompt(resumeText, roleContext, role string) string {
	return fmt.Sprintf(`You are an experienced recruiter screening applicants for a %s position.

ROLE REFERENCE MATERIAL:
%s

APPLICANT RESUME:
%s

First decide whether the document is really a resume. A blank page, an invoice, a
cover letter or unrelated text is not valid.

Then analyze the resume against the role and write %d technical and %d behavioral
follow-up questions that can be asked aloud in a short voice interview. Each question
must be answerable in a few spoken sentences. For every question give the answer a
strong applicant would be expected to give.

Return ONLY JSON in this exact shape:
{
  "validation": {"isValid": <true|false>, "reason": "<why, when invalid>"},
  "analysis": {
    "summary": "<2-3 sentences, addressed to the applicant, no scores>",
    "strengths": ["<strength>"],
    "gaps": ["<gap>"],
    "skills": ["<skill>"],
    "matchScore": <0.0-1.0>
  },
  "recommendedQuestions": {
    "technical": [{"question": "<question>", "expectedAnswer": "<answer>"}],
    "behavioral": [{"question": "<question>", "expectedAnswer": "<answer>"}]
  }
}`, roleOrDefault(role), roleContext, resumeText, pb.technicalCount, pb.behavioralCount)
}

// BuildCoverLetterPrompt asks for validation and analysis only.
func (pb *PromptBuilder) BuildCoverLetterPrompt(letterText, roleContext, role string) string {
	return fmt.Sprintf(`You are an experienced recruiter screening applicants for a %s position.

ROLE REFERENCE MATERIAL:
%s

APPLICANT COVER LETTER:
%s

First decide whether the document is really a cover letter. A resume, a blank page
or unrelated text is not valid.

Then analyze how well the letter motivates the application for this role.

Return ONLY JSON in this exact shape:
{
  "validation": {"isValid": <true|false>, "reason": "<why, when invalid>"},
  "analysis": {
    "summary": "<2-3 sentences, addressed to the applicant, no scores>",
    "strengths": ["<strength>"],
    "gaps": ["<gap>"],
    "matchScore": <0.0-1.0>
  }
}`, roleOrDefault(role), roleContext, letterText)
}

func (pb *PromptBuilder) Build(documentType models.DocumentType, text, roleContext, role string) string {
	if documentType == models.DocumentCoverLetter {
		return pb.BuildCoverLetterPrompt(text, roleContext, role)
	}
	return pb.BuildResumePrompt(text, roleContext, role)
}

// BuildRetrievalQuery is the text embedded to look up role material.
func (pb *PromptBuilder) BuildRetrievalQuery(role, documentText string) string {
	head := []rune(documentText)
	if len(head) > 2000 {
		head = head[:2000]
	}
	return fmt.Sprintf("Requirements, interview questions and expectations for %s\n\n%s", roleOrDefault(role), string(head))
}

func roleOrDefault(role string) string {
	if strings.TrimSpace(role) == "" {
		return "software engineering"
	}
	return role
}

// FormatRAGContext renders search hits for a prompt.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No role material found. Rely on general expectations for the role."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- %s %d (score %.2f) ---\n%s",
			result.Kind, i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
