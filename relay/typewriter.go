package relay

import (
	"strings"
	"time"

	"github.com/d-wern/stella-relay/pkg/chat"
)

// relayErrorMessage is the user-facing error text, localized to match the
// Stella backend. Streaming clients see it revealed word by word; the
// non-streaming path returns it as a fixed body.
const relayErrorMessage = "Désolée, je rencontre des difficultés techniques en ce moment. Veuillez réessayer dans quelques instants."

// typeErrorReveal streams the error message as a word-by-word "typing"
// reveal so incremental renderers show growing text instead of one abrupt
// block. Each event carries the cumulative text so far. Ends with the
// terminal done event per the session invariant.
func (r *Relay) typeErrorReveal(sess *streamSession) {
	words := strings.Fields(relayErrorMessage)

	for i := range words {
		ev := chat.StreamEvent{
			Chunk: strings.Join(words[:i+1], " "),
			Type:  chat.TypeError,
		}

		if err := sess.writer.SendJSON("", ev); err != nil {
			// Client gone; the pipe is closing anyway.
			return
		}

		if r.config.TypingDelay > 0 {
			time.Sleep(r.config.TypingDelay)
		}
	}

	sess.emitDone()
}
