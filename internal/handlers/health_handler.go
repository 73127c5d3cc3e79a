package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/voice-screener/internal/models"
)

// HandleHealth answers the liveness probe the client runs before starting an
// interview. sessions may be nil.
func HandleHealth(sessions func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := models.HealthResponse{Status: "healthy", Time: time.Now()}
		if sessions != nil {
			resp.Sessions = sessions()
		}
		return c.JSON(resp)
	}
}
