package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/eventstream"
	"github.com/d-wern/stella-relay/pkg/transcript"
	"github.com/d-wern/stella-relay/pkg/transcript/inmemory"
)

// capturePublisher records every published turn event.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnRecordedEvent
}

func (p *capturePublisher) PublishTurn(_ context.Context, event *eventstream.TurnRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []*eventstream.TurnRecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.TurnRecordedEvent(nil), p.events...)
}

// blockingStore holds every Save until the gate is closed.
type blockingStore struct {
	inner *inmemory.Store
	gate  chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, turn *transcript.Turn) error {
	<-s.gate
	return s.inner.Save(ctx, turn)
}

func (s *blockingStore) Recent(ctx context.Context, limit int) ([]*transcript.Turn, error) {
	return s.inner.Recent(ctx, limit)
}

func (s *blockingStore) Close() error { return nil }

// failingStore rejects every Save.
type failingStore struct{}

func (failingStore) Save(context.Context, *transcript.Turn) error {
	return errors.New("disk on fire")
}

func (failingStore) Recent(context.Context, int) ([]*transcript.Turn, error) { return nil, nil }

func (failingStore) Close() error { return nil }

func testTurn(id string) *transcript.Turn {
	now := time.Now()
	return &transcript.Turn{
		ID:          id,
		SessionID:   "sess-1",
		Message:     "Bonjour",
		Response:    "Bonjour, comment puis-je aider ?",
		StartedAt:   now,
		CompletedAt: now,
	}
}

var _ = Describe("Worker Pool", func() {
	It("requires a transcript store", func() {
		_, err := NewPool(&Config{Logger: zap.NewNop()})
		Expect(err).To(HaveOccurred())
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, err := NewPool(&Config{
				Store:  inmemory.NewStore(),
				Logger: zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(Job{Turn: testTurn("turn-1")})).To(BeTrue())
			wp.Close()
		})

		It("drops jobs instead of blocking when the queue is full", func() {
			store := &blockingStore{
				inner: inmemory.NewStore(),
				gate:  make(chan struct{}),
			}

			wp, err := NewPool(&Config{
				Store:      store,
				NumWorkers: 1,
				QueueSize:  1,
				Logger:     zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			// First job occupies the single worker, second fills the queue.
			Expect(wp.Enqueue(Job{Turn: testTurn("turn-1")})).To(BeTrue())
			Eventually(func() bool {
				return wp.Enqueue(Job{Turn: testTurn("turn-2")})
			}).Should(BeTrue())

			Consistently(func() bool {
				return wp.Enqueue(Job{Turn: testTurn("turn-3")})
			}).Should(BeFalse())

			close(store.gate)
			wp.Close()
		})
	})

	Describe("Recording", func() {
		It("saves the turn and publishes a turn event", func() {
			store := inmemory.NewStore()
			publisher := &capturePublisher{}

			wp, err := NewPool(&Config{
				Store:     store,
				Publisher: publisher,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			turn := testTurn("turn-1")
			Expect(wp.Enqueue(Job{Turn: turn})).To(BeTrue())
			wp.Close()

			turns, err := store.Recent(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(1))
			Expect(turns[0].ID).To(Equal("turn-1"))

			events := publisher.published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeTurnRecorded))
			Expect(events[0].SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(events[0].EventID).NotTo(BeEmpty())
			Expect(events[0].Turn.ID).To(Equal("turn-1"))
			Expect(events[0].Turn.SessionID).To(Equal("sess-1"))
		})

		It("does not publish when the save fails", func() {
			publisher := &capturePublisher{}

			wp, err := NewPool(&Config{
				Store:     failingStore{},
				Publisher: publisher,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(Job{Turn: testTurn("turn-1")})).To(BeTrue())
			wp.Close()

			Expect(publisher.published()).To(BeEmpty())
		})
	})
})
