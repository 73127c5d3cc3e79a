package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/repositories"
	"alfredoptarigan/voice-screener/internal/services"
)

type DocumentHandler struct {
	documents   services.DocumentService
	maxFileSize int64
}

func NewDocumentHandler(documents services.DocumentService, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{
		documents:   documents,
		maxFileSize: maxFileSize,
	}
}

// HandleUpload handles POST /documents/upload
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "file is required")
	}

	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		return uploadFailure(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize))
	}

	documentType := models.DocumentType(c.FormValue("documentType"))
	if !documentType.Valid() {
		return uploadFailure(c, fiber.StatusBadRequest, "documentType must be resume or coverLetter")
	}

	src, err := fh.Open()
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}

	result, err := h.documents.Process(c.UserContext(), services.DocumentUpload{
		SessionID:    c.FormValue("sessionId"),
		DocumentType: documentType,
		Role:         c.FormValue("role"),
		FileName:     fh.Filename,
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDocumentType), errors.Is(err, services.ErrNotPDF):
			return uploadFailure(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrFileTooLarge):
			return uploadFailure(c, fiber.StatusRequestEntityTooLarge, err.Error())
		default:
			log.Printf("❌ Document upload failed: %v", err)
			return uploadFailure(c, fiber.StatusInternalServerError, "failed to process document")
		}
	}

	if !result.Validation.IsValid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.DocumentUploadResponse{
			Success: false,
			Data:    result,
			Error:   result.Validation.Reason,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.DocumentUploadResponse{
		Success: true,
		Data:    result,
	})
}

// HandleGet handles GET /documents/:id
func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.documents.Get(id)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		log.Printf("❌ Failed to load document %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load document",
		})
	}

	return c.JSON(doc)
}

// HandleList handles GET /documents?sessionId=
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sessionId is required",
		})
	}

	docs, err := h.documents.ListBySession(sessionID)
	if err != nil {
		log.Printf("❌ Failed to list documents of %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	return c.JSON(fiber.Map{"documents": docs})
}

func uploadFailure(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.DocumentUploadResponse{Success: false, Error: msg})
}
