package relay

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/chat"
	"github.com/d-wern/stella-relay/pkg/transcript"
	"github.com/d-wern/stella-relay/relay/worker"
)

// handleChat is the intake for POST /chat. Validation happens before any
// upstream connection: once the response commits to text/event-stream,
// failures can only be expressed in-band.
func (r *Relay) handleChat(c *fiber.Ctx) error {
	var req chat.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "Invalid request body"})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "Message is required"})
	}

	if req.Stream {
		return r.handleStreamingChat(c, req)
	}

	return r.handleNonStreamingChat(c, req)
}

// handleNonStreamingChat performs one backend round trip and returns the
// mapped JSON response. Backend failures degrade to a fixed user-facing
// body with HTTP 500 instead of a raw error.
func (r *Relay) handleNonStreamingChat(c *fiber.Ctx, req chat.Request) error {
	startTime := time.Now()

	body, err := r.backend.Chat(c.Context(), req.Message, req.SessionID)
	if err != nil {
		r.logger.Error("backend chat failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		return r.degradedChatResponse(c)
	}

	resp, err := chat.FromBackend(body)
	if err != nil {
		r.logger.Error("backend chat response unreadable", zap.Error(err))
		return r.degradedChatResponse(c)
	}

	resp.Streaming = false
	resp.Timestamp = time.Now().Format(time.RFC3339)
	if resp.SessionID == "" {
		resp.SessionID = req.SessionID
	}

	r.recordTurn(req, resp.Response, false, false, startTime)

	return c.JSON(resp)
}

// degradedChatResponse is the fixed-text fallback for non-streaming
// backend failures.
func (r *Relay) degradedChatResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(&chat.Response{
		Response:  relayErrorMessage,
		Streaming: false,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// recordTurn enqueues the completed exchange for async recording.
func (r *Relay) recordTurn(req chat.Request, response string, streaming, failed bool, startTime time.Time) {
	completed := time.Now()

	r.pool.Enqueue(worker.Job{Turn: &transcript.Turn{
		ID:          uuid.NewString(),
		SessionID:   req.SessionID,
		Message:     req.Message,
		Response:    response,
		Streaming:   streaming,
		Failed:      failed,
		StartedAt:   startTime,
		CompletedAt: completed,
		DurationMs:  completed.Sub(startTime).Milliseconds(),
	}})
}
