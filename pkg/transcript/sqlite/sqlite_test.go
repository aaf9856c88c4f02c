package sqlite_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/d-wern/stella-relay/pkg/transcript"
	"github.com/d-wern/stella-relay/pkg/transcript/sqlite"
)

var _ = Describe("Store", func() {
	var store *sqlite.Store
	ctx := context.Background()

	BeforeEach(func() {
		var err error
		store, err = sqlite.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("round-trips a turn", func() {
		started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		turn := &transcript.Turn{
			ID:          "t1",
			SessionID:   "s1",
			Message:     "price of AAPL?",
			Response:    "around 200",
			Streaming:   true,
			StartedAt:   started,
			CompletedAt: started.Add(1200 * time.Millisecond),
			DurationMs:  1200,
		}
		Expect(store.Save(ctx, turn)).To(Succeed())

		turns, err := store.Recent(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].ID).To(Equal("t1"))
		Expect(turns[0].Streaming).To(BeTrue())
		Expect(turns[0].Failed).To(BeFalse())
		Expect(turns[0].StartedAt.Equal(started)).To(BeTrue())
		Expect(turns[0].DurationMs).To(Equal(int64(1200)))
	})

	It("orders recent turns newest first", func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i, id := range []string{"old", "mid", "new"} {
			turn := &transcript.Turn{
				ID:          id,
				Message:     "m",
				Response:    "r",
				StartedAt:   base,
				CompletedAt: base.Add(time.Duration(i) * time.Minute),
			}
			Expect(store.Save(ctx, turn)).To(Succeed())
		}

		turns, err := store.Recent(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].ID).To(Equal("new"))
		Expect(turns[1].ID).To(Equal("mid"))
	})

	It("rejects nil turns", func() {
		Expect(store.Save(ctx, nil)).To(MatchError(transcript.ErrNilTurn))
	})

	It("rejects duplicate turn ids", func() {
		turn := &transcript.Turn{ID: "dup", Message: "m", Response: "r",
			StartedAt: time.Now(), CompletedAt: time.Now()}
		Expect(store.Save(ctx, turn)).To(Succeed())
		Expect(store.Save(ctx, turn)).To(HaveOccurred())
	})
})
