package relay

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/chat"
)

// handleHealth is the liveness endpoint.
func (r *Relay) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "stella-relay",
	})
}

// handleTranscripts lists recently recorded turns, newest first.
func (r *Relay) handleTranscripts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	turns, err := r.store.Recent(c.Context(), limit)
	if err != nil {
		r.logger.Error("listing transcripts failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to list transcripts"})
	}

	return c.JSON(fiber.Map{
		"count": len(turns),
		"turns": turns,
	})
}

// handleTrace proxies the backend's trace endpoint with a bounded timeout,
// passing status and body through. A backend that takes too long yields
// 408 instead of hanging the client.
func (r *Relay) handleTrace(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")

	ctx, cancel := context.WithTimeout(context.Background(), r.config.TraceTimeout)
	defer cancel()

	status, body, err := r.backend.Trace(ctx, sessionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusRequestTimeout).JSON(chat.ErrorResponse{Error: "trace request timed out"})
		}

		r.logger.Error("trace proxy failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: "trace request failed"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}
