package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// sseUpstream serves POST /chat/stream, writing each frame as its own chunk
// with a flush in between. Frames may split SSE lines at arbitrary points.
func sseUpstream(frames ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.URL.Path).To(Equal("/chat/stream"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		for _, frame := range frames {
			io.WriteString(w, frame)
			flusher.Flush()
		}
	}))
}

// streamChat runs one streaming chat against the relay and returns the
// parsed outbound events plus the raw response.
func streamChat(r *Relay, message string) ([]sseEvent, *http.Response) {
	resp, err := r.app.Test(chatRequest(`{"message": "`+message+`", "session_id": "sess-42", "stream": true}`), -1)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	return parseSSEBody(string(body)), resp
}

var _ = Describe("POST /chat (streaming)", func() {
	Context("with a healthy upstream stream", func() {
		It("relays a token event and the sentinel as exactly two outbound events", func() {
			upstream := sseUpstream(
				"data: {\"chunk\":\"Bonjour\",\"type\":\"content\"}\n\n",
				"data: [DONE]\n\n",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, resp := streamChat(r, "Bonjour Stella")
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))

			Expect(events).To(HaveLen(2))
			Expect(events[0].Name).To(Equal("message"))
			Expect(events[0].Raw).To(Equal(`{"chunk":"Bonjour","type":"content"}`))
			Expect(events[1].Data).To(Equal(map[string]any{"type": "done"}))
		})

		It("forwards payload bytes verbatim, key order and all", func() {
			payload := `{"type":"content","chunk":"métriques €","extra":{"b":2,"a":1}}`
			upstream := sseUpstream("data: "+payload+"\n\n", "data: [DONE]\n\n")
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Raw).To(Equal(payload))
		})

		It("reassembles events split across chunk boundaries", func() {
			upstream := sseUpstream(
				"data: {\"chunk\":\"Bonj",
				"our\",\"type\":\"content\"}\n",
				"\ndata: [DONE]\n\n",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Raw).To(Equal(`{"chunk":"Bonjour","type":"content"}`))
			Expect(events[1].Data).To(HaveKeyWithValue("type", "done"))
		})

		It("emits nothing past the sentinel", func() {
			upstream := sseUpstream(
				"data: [DONE]\n\ndata: {\"chunk\":\"late\",\"type\":\"content\"}\n\n",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(1))
			Expect(events[0].Data).To(HaveKeyWithValue("type", "done"))
		})
	})

	Context("with an imperfect upstream stream", func() {
		It("synthesizes done when upstream closes without the sentinel", func() {
			upstream := sseUpstream("data: {\"chunk\":\"Bonjour\",\"type\":\"content\"}\n\n")
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[1].Data).To(HaveKeyWithValue("type", "done"))
		})

		It("emits done alone for an empty upstream stream", func() {
			upstream := sseUpstream()
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(1))
			Expect(events[0].Data).To(HaveKeyWithValue("type", "done"))
		})

		It("skips malformed payload lines without ending the stream", func() {
			upstream := sseUpstream(
				"data: {broken\n\n",
				"data: {\"chunk\":\"ok\",\"type\":\"content\"}\n\n",
				"data: [DONE]\n\n",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Raw).To(Equal(`{"chunk":"ok","type":"content"}`))
			Expect(events[1].Data).To(HaveKeyWithValue("type", "done"))
		})

		It("ignores named event and comment lines", func() {
			upstream := sseUpstream(
				"event: token\ndata: {\"chunk\":\"a\",\"type\":\"content\"}\n\n",
				": keepalive\n\n",
				"data: [DONE]\n\n",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Raw).To(Equal(`{"chunk":"a","type":"content"}`))
		})

		It("discards a trailing unterminated fragment", func() {
			upstream := sseUpstream(
				"data: {\"chunk\":\"ok\",\"type\":\"content\"}\n\n",
				"data: {\"chunk\":\"partial",
			)
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(events).To(HaveLen(2))
			Expect(events[0].Raw).To(Equal(`{"chunk":"ok","type":"content"}`))
			Expect(events[1].Data).To(HaveKeyWithValue("type", "done"))
		})
	})

	Context("when the upstream connection fails", func() {
		It("types out the error message word by word and closes with done", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "agent exploded", http.StatusInternalServerError)
			}))
			defer upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")

			words := strings.Fields(relayErrorMessage)
			Expect(events).To(HaveLen(len(words) + 1))

			for i, ev := range events[:len(words)] {
				Expect(ev.Data).To(HaveKeyWithValue("type", "error"))
				Expect(ev.Data).To(HaveKeyWithValue("chunk", strings.Join(words[:i+1], " ")))
			}

			Expect(events[len(words)-1].Data).To(HaveKeyWithValue("chunk", relayErrorMessage))
			Expect(events[len(words)].Data).To(Equal(map[string]any{"type": "done"}))
		})

		It("runs the same reveal when the backend is unreachable", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
			upstream.Close()

			r, _ := newTestRelay(upstream.URL)

			events, _ := streamChat(r, "Bonjour")
			Expect(len(events)).To(BeNumerically(">", 1))
			Expect(events[0].Data).To(HaveKeyWithValue("type", "error"))
			Expect(events[len(events)-1].Data).To(HaveKeyWithValue("type", "done"))
		})
	})

	Context("transcript recording", func() {
		It("records the assembled streamed content", func() {
			upstream := sseUpstream(
				"data: {\"chunk\":\"Bonjour \",\"type\":\"content\"}\n\n",
				"data: {\"chunk\":\"tout le monde\",\"type\":\"content\"}\n\n",
				"data: [DONE]\n\n",
			)
			defer upstream.Close()

			r, store := newTestRelay(upstream.URL)

			streamChat(r, "Bonjour")

			Eventually(func() int {
				turns, err := store.Recent(context.Background(), 10)
				Expect(err).NotTo(HaveOccurred())
				return len(turns)
			}).Should(Equal(1))

			turns, err := store.Recent(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns[0].Response).To(Equal("Bonjour tout le monde"))
			Expect(turns[0].Streaming).To(BeTrue())
			Expect(turns[0].Failed).To(BeFalse())
		})

		It("records a failed turn after the error reveal", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "agent exploded", http.StatusInternalServerError)
			}))
			defer upstream.Close()

			r, store := newTestRelay(upstream.URL)

			streamChat(r, "Bonjour")

			Eventually(func() int {
				turns, err := store.Recent(context.Background(), 10)
				Expect(err).NotTo(HaveOccurred())
				return len(turns)
			}).Should(Equal(1))

			turns, err := store.Recent(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns[0].Failed).To(BeTrue())
			Expect(turns[0].Streaming).To(BeTrue())
			Expect(turns[0].Response).To(Equal(relayErrorMessage))
		})
	})
})
