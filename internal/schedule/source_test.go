package schedule

import (
	"testing"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

// Taxi over distance 166: duration 5h, base price 1 + 166*12 = 1993.
func taxiRequest() model.Commitment {
	departure := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	return model.Commitment{
		Performer: "provider",
		Acceptor:  "consumer",
		Detail: model.TripProvision{
			From:         model.GeoPoint{Lat: 0.5, Lng: 2},
			To:           model.GeoPoint{Lat: 2, Lng: 2},
			DepartAfter:  departure,
			ArriveBefore: departure.Add(5 * time.Hour),
			Transport:    model.TransportTaxi,
		},
	}
}

func TestComposeOffersShapes(t *testing.T) {
	src := NewTaxi()
	src.now = func() time.Time { return time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC) }

	offers := src.ComposeOffers(taxiRequest(), map[string]string{PropTrustedGuarantors: "operator"})
	if len(offers) != 3 {
		t.Fatalf("expected 3 offers for one window, got %d", len(offers))
	}

	full, half, thirds := offers[0], offers[1], offers[2]
	if len(full.Commitments) != 2 || len(half.Commitments) != 3 || len(thirds.Commitments) != 4 {
		t.Fatalf("unexpected offer shapes: %d/%d/%d commitments",
			len(full.Commitments), len(half.Commitments), len(thirds.Commitments))
	}
	for _, offer := range offers {
		if offer.Offeror != "provider" || offer.Offeree != "consumer" {
			t.Fatalf("offer names wrong parties: %s -> %s", offer.Offeror, offer.Offeree)
		}
	}

	// base 1993: 20% off full prepayment, 10%/5% off the split shapes.
	if got := full.Commitments[0].PaymentAmount(); got != (80*1993)/100 {
		t.Fatalf("full prepayment = %d, want %d", got, (80*1993)/100)
	}
	pre := half.Commitments[0].Detail.(model.PrePayment)
	if pre.Amount != (90*1993)/200 || pre.RefundableBefore == nil {
		t.Fatalf("refundable prepayment = %+v", pre)
	}
	post := half.Commitments[2].Detail.(model.PostPayment)
	if post.Amount != (95*1993)/200 {
		t.Fatalf("guaranteed postpayment = %d, want %d", post.Amount, (95*1993)/200)
	}
	if len(post.TrustedGuarantors) != 1 || post.TrustedGuarantors[0] != "operator" {
		t.Fatalf("trusted guarantors = %v", post.TrustedGuarantors)
	}

	trip := half.Commitments[1].Detail.(model.TripProvision)
	if !post.PayBefore.Equal(trip.ArriveBefore.Add(30 * time.Minute)) {
		t.Fatalf("postpayment due %v, want 30m after arrival %v", post.PayBefore, trip.ArriveBefore)
	}
	if !pre.RefundableBefore.Equal(trip.DepartAfter) {
		t.Fatalf("prepayment refundable until %v, want departure %v", pre.RefundableBefore, trip.DepartAfter)
	}

	if got := thirds.Commitments[0].PaymentAmount(); got != (80*1993)/300 {
		t.Fatalf("thirds non-refundable = %d, want %d", got, (80*1993)/300)
	}
	if got := thirds.Commitments[1].PaymentAmount(); got != (90*1993)/300 {
		t.Fatalf("thirds refundable = %d, want %d", got, (90*1993)/300)
	}
	if got := thirds.Commitments[3].PaymentAmount(); got != (95*1993)/300 {
		t.Fatalf("thirds guaranteed = %d, want %d", got, (95*1993)/300)
	}
}

func TestComposeOffersWithoutGuarantors(t *testing.T) {
	src := NewTaxi()
	offers := src.ComposeOffers(taxiRequest(), nil)
	if len(offers) != 1 {
		t.Fatalf("expected only the full-prepayment offer, got %d", len(offers))
	}
	if len(offers[0].Commitments) != 2 {
		t.Fatalf("unexpected shape: %d commitments", len(offers[0].Commitments))
	}
}

func TestComposeOffersIgnoresOtherTransport(t *testing.T) {
	src := NewAirline()
	if offers := src.ComposeOffers(taxiRequest(), nil); offers != nil {
		t.Fatalf("airline answered a taxi request: %v", offers)
	}
}

func TestComposeOffersValidityFromProps(t *testing.T) {
	now := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	src := NewTaxi()
	src.now = func() time.Time { return now }

	offers := src.ComposeOffers(taxiRequest(), map[string]string{PropOfferValidity: "60"})
	if len(offers) == 0 {
		t.Fatalf("no offers composed")
	}
	if !offers[0].ValidAfter.Equal(now) || !offers[0].ValidBefore.Equal(now.Add(time.Hour)) {
		t.Fatalf("validity window = [%v, %v]", offers[0].ValidAfter, offers[0].ValidBefore)
	}
}
