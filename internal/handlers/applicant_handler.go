package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/repositories"
)

type ApplicantHandler struct {
	applicants repositories.ApplicantRepository
}

func NewApplicantHandler(applicants repositories.ApplicantRepository) *ApplicantHandler {
	return &ApplicantHandler{applicants: applicants}
}

// HandleCreate handles POST /applicants
func (h *ApplicantHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.ApplicantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.SuccessResponse{Error: "Invalid request payload"})
	}

	if strings.TrimSpace(req.SessionID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.SuccessResponse{Error: "sessionId is required"})
	}

	submitted := req.Timestamp
	if submitted.IsZero() {
		submitted = time.Now()
	}

	applicant := &models.Applicant{
		ID:              uuid.New(),
		SessionID:       req.SessionID,
		Name:            req.Name,
		Role:            req.Role,
		CareerGap:       req.CareerGap,
		ExperienceYears: req.ExperienceYears,
		ResumeLink:      req.ResumeLink,
		CoverLetterLink: req.CoverLetterLink,
		SubmittedAt:     submitted,
		UpdatedAt:       time.Now(),
	}

	if err := h.applicants.Upsert(applicant); err != nil {
		log.Printf("❌ Failed to save applicant %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.SuccessResponse{Error: "Failed to save applicant"})
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse{Success: true})
}

// HandleResponses handles POST /applicants/:sessionId/responses
func (h *ApplicantHandler) HandleResponses(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req models.ResponsesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.SuccessResponse{Error: "Invalid request payload"})
	}

	rows := make([]models.InterviewResponse, 0, len(req.Responses))
	for _, r := range req.Responses {
		rows = append(rows, models.InterviewResponse{
			Question:       r.Question,
			ExpectedAnswer: r.ExpectedAnswer,
			Answer:         r.Answer,
		})
	}

	if err := h.applicants.ReplaceResponses(sessionID, rows); err != nil {
		log.Printf("❌ Failed to save responses of %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.SuccessResponse{Error: "Failed to save responses"})
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse{Success: true})
}

// HandleGet handles GET /applicants/:sessionId
func (h *ApplicantHandler) HandleGet(c *fiber.Ctx) error {
	applicant, err := h.applicants.FindBySessionID(c.Params("sessionId"))
	if err != nil {
		if errors.Is(err, repositories.ErrApplicantNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Applicant not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load applicant",
		})
	}

	return c.JSON(applicant)
}
