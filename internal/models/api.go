package models

import "time"

// Wire shapes of the screening backend. Field names follow the browser
// client, which speaks camelCase.

type Question struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
}

type RecommendedQuestions struct {
	Technical  []Question `json:"technical"`
	Behavioral []Question `json:"behavioral"`
}

type Validation struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
}

type DocumentUploadData struct {
	URL                  string               `json:"url"`
	Key                  string               `json:"key"`
	DocumentType         string               `json:"documentType"`
	Analysis             string               `json:"analysis"`
	Validation           Validation           `json:"validation"`
	RecommendedQuestions RecommendedQuestions `json:"recommendedQuestions"`
}

type DocumentUploadResponse struct {
	Success bool                `json:"success"`
	Data    *DocumentUploadData `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type ApplicantRequest struct {
	SessionID       string    `json:"sessionId"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	CareerGap       string    `json:"careerGap"`
	ExperienceYears string    `json:"experienceYears"`
	ResumeLink      string    `json:"resumeLink"`
	CoverLetterLink string    `json:"coverLetterLink"`
	Timestamp       time.Time `json:"timestamp"`
}

type ResponseItem struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	Answer         string `json:"answer"`
}

type ResponsesRequest struct {
	Responses []ResponseItem `json:"responses"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status   string    `json:"status"`
	Time     time.Time `json:"time"`
	Sessions int       `json:"sessions"`
}
