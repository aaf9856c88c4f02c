package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/chat"
	"github.com/d-wern/stella-relay/pkg/sse"
	"github.com/d-wern/stella-relay/pkg/utils"
)

// doneSentinel is the literal the backend emits to close a stream. It is
// never forwarded as a pass-through event.
const doneSentinel = "[DONE]"

// handleStreamingChat commits the response to text/event-stream and hands
// the write end of a pipe to the pump goroutine. From this point on every
// failure is expressed as in-band events, never as an HTTP status.
func (r *Relay) handleStreamingChat(c *fiber.Ctx, req chat.Request) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Access-Control-Allow-Origin", "*")

	// io.Pipe gives direct backpressure: pw.Write blocks until fasthttp
	// reads from the pipe and flushes to the TCP socket, so the client
	// sees every event as it happens instead of one buffered block.
	pr, pw := io.Pipe()
	go r.pumpStream(req, pw, time.Now())

	// Unknown size (-1) triggers chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// pumpStream drives one streaming session: connect upstream, decode,
// translate, emit. It owns the pipe writer and closes it exactly once.
//
// fasthttp recycles its RequestCtx after the handler returns, so the pump
// runs on its own context. A client disconnect surfaces as a pipe write
// error, which aborts the pump and cancels the upstream request.
func (r *Relay) pumpStream(req chat.Request, pw *io.PipeWriter, startTime time.Time) {
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), r.config.StreamTimeout)
	defer cancel()

	sess := newStreamSession(sse.NewWriter(pw), r.logger)

	err := r.relayUpstream(ctx, req, sess)
	if err == nil {
		r.recordTurn(req, sess.content.String(), true, false, startTime)
		return
	}

	var writeErr *clientWriteError
	if errors.As(err, &writeErr) {
		// The client went away; there is nobody left to stream to.
		r.logger.Debug("client disconnected mid-stream",
			zap.String("session_id", req.SessionID),
			zap.Error(writeErr),
		)
		return
	}

	r.logger.Error("streaming session failed",
		zap.String("session_id", req.SessionID),
		zap.Error(err),
	)

	r.typeErrorReveal(sess)
	r.recordTurn(req, relayErrorMessage, true, true, startTime)
}

// relayUpstream opens the backend stream and pumps it through the decoder
// and translator until the done sentinel, end of stream, or an error.
// Returns nil once the terminal done event has been emitted.
func (r *Relay) relayUpstream(ctx context.Context, req chat.Request, sess *streamSession) error {
	body, err := r.backend.OpenStream(ctx, req.Message, req.SessionID)
	if err != nil {
		return fmt.Errorf("connecting upstream: %w", err)
	}
	defer body.Close()

	dec := sse.NewDecoder()
	buf := make([]byte, 4096)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				stop, err := sess.handleLine(line)
				if err != nil {
					return err
				}
				if stop {
					// Sentinel seen, done emitted; no further
					// bytes need to be consumed.
					return nil
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("reading upstream stream: %w", readErr)
		}
	}

	if tail := dec.Tail(); tail != "" {
		r.logger.Debug("discarding unterminated upstream fragment",
			zap.String("fragment", utils.Truncate(tail, 256)),
		)
	}

	// Upstream ended without [DONE]; the client still gets its terminal
	// event.
	return sess.emitDone()
}

// streamSession translates decoded upstream lines into outbound events and
// tracks the session's accumulated content and terminal state.
type streamSession struct {
	writer   *sse.Writer
	logger   *zap.Logger
	content  strings.Builder
	doneSent bool
}

func newStreamSession(writer *sse.Writer, logger *zap.Logger) *streamSession {
	return &streamSession{writer: writer, logger: logger}
}

// handleLine interprets one complete upstream line. It returns stop=true
// when the done sentinel has been handled and reading can cease. Errors
// are only returned for client-side write failures; malformed upstream
// payloads are logged and skipped.
func (s *streamSession) handleLine(line string) (stop bool, err error) {
	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		if name, isEvent := strings.CutPrefix(line, "event:"); isEvent {
			s.logger.Debug("upstream named event",
				zap.String("event", strings.TrimSpace(name)),
			)
		}
		// Blank lines are SSE frame separators; anything else is noise.
		return false, nil
	}

	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		return true, s.emitDone()
	}

	raw := json.RawMessage(payload)
	if !json.Valid(raw) {
		s.logger.Warn("skipping malformed upstream payload",
			zap.String("payload", utils.Truncate(payload, 256)),
		)
		return false, nil
	}

	if fragment := chat.ContentFragment(raw); fragment != "" {
		s.content.WriteString(fragment)
	}

	// Pass-through: the payload bytes are forwarded verbatim.
	if err := s.writer.Send(sse.Event{Data: raw}); err != nil {
		return false, &clientWriteError{err: err}
	}

	return false, nil
}

// emitDone sends the terminal done event, at most once per session.
func (s *streamSession) emitDone() error {
	if s.doneSent {
		return nil
	}

	if err := s.writer.SendJSON("", chat.StreamEvent{Type: chat.TypeDone}); err != nil {
		return &clientWriteError{err: err}
	}

	s.doneSent = true
	return nil
}

// clientWriteError marks failures writing to the downstream client, which
// must not be routed into the error simulator: there is no client left.
type clientWriteError struct {
	err error
}

func (e *clientWriteError) Error() string {
	return "writing to client: " + e.err.Error()
}

func (e *clientWriteError) Unwrap() error {
	return e.err
}
