package offering

import (
	"testing"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

func offerExpiring(validBefore time.Time, amount int64) model.Offer {
	return model.Offer{
		Offeror:     "provider",
		Offeree:     "consumer",
		ValidAfter:  validBefore.Add(-time.Hour),
		ValidBefore: validBefore,
		Commitments: []model.Commitment{
			{Performer: "consumer", Acceptor: "provider", Detail: model.PrePayment{Amount: amount, PayBefore: validBefore}},
		},
	}
}

func newFrozenCache(now time.Time) *VerificationCache {
	c := NewVerificationCache()
	c.now = func() time.Time { return now }
	return c
}

func TestVerifyIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := newFrozenCache(now)

	offer := offerExpiring(now.Add(time.Hour), 100)
	c.Record([]model.Offer{offer})

	for i := 0; i < 3; i++ {
		if !c.Verify(offer) {
			t.Fatalf("verify %d returned false for a live offer", i)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := newFrozenCache(now)

	offer := offerExpiring(now.Add(-time.Second), 100)
	c.Record([]model.Offer{offer})
	if c.Verify(offer) {
		t.Fatalf("expired offer verified")
	}
}

func TestVerifyRejectsUnknown(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := newFrozenCache(now)

	if c.Verify(offerExpiring(now.Add(time.Hour), 100)) {
		t.Fatalf("never-recorded offer verified")
	}
}

func TestPurgeEvictsOnlyExpiredBuckets(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := newFrozenCache(now)

	stale := offerExpiring(now.Add(time.Minute), 1)
	live := offerExpiring(now.Add(time.Hour), 2)
	c.Record([]model.Offer{stale, live})
	if len(c.keys) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(c.keys))
	}

	c.now = func() time.Time { return now.Add(30 * time.Minute) }
	if !c.Verify(live) {
		t.Fatalf("live offer no longer verifies")
	}
	if len(c.keys) != 1 {
		t.Fatalf("expected the stale bucket to be purged, have %d", len(c.keys))
	}
	if c.Verify(stale) {
		t.Fatalf("stale offer still verifies after purge")
	}
}

func TestRecordPassesThrough(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	c := newFrozenCache(now)

	in := []model.Offer{offerExpiring(now.Add(time.Hour), 1), offerExpiring(now.Add(2*time.Hour), 2)}
	out := c.Record(in)
	if len(out) != len(in) {
		t.Fatalf("record changed the batch size")
	}
	for i := range in {
		if out[i].Digest() != in[i].Digest() {
			t.Fatalf("record changed offer %d", i)
		}
	}
}
