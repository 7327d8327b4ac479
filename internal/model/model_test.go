package model

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleOffer() Offer {
	departure := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	arrival := departure.Add(2 * time.Hour)
	refundable := departure
	provision := Commitment{
		Performer: "provider",
		Acceptor:  "consumer",
		Detail: TripProvision{
			From:         GeoPoint{Lat: 0, Lng: 0},
			To:           GeoPoint{Lat: 7, Lng: 0},
			DepartAfter:  departure,
			ArriveBefore: arrival,
			Transport:    TransportAirliner,
		},
	}
	return Offer{
		Offeror:     "provider",
		Offeree:     "consumer",
		ValidAfter:  departure.Add(-24 * time.Hour),
		ValidBefore: departure.Add(24 * time.Hour),
		Commitments: []Commitment{
			{Performer: "consumer", Acceptor: "provider", Detail: PrePayment{
				Amount:           450,
				PayBefore:        departure,
				RefundableBefore: &refundable,
			}},
			provision,
			{Performer: "consumer", Acceptor: "provider", Detail: PostPayment{
				Amount:            475,
				PayBefore:         arrival.Add(30 * time.Minute),
				TrustedGuarantors: []Party{"operator"},
			}},
		},
	}
}

func TestOfferJSONRoundTrip(t *testing.T) {
	offer := sampleOffer()
	data, err := json.Marshal(offer)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Offer
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Digest() != offer.Digest() {
		t.Fatalf("round trip changed the offer digest")
	}
	if _, ok := back.Commitments[1].Detail.(TripProvision); !ok {
		t.Fatalf("provision variant lost: %T", back.Commitments[1].Detail)
	}
	if pp, ok := back.Commitments[0].Detail.(PrePayment); !ok || pp.RefundableBefore == nil {
		t.Fatalf("prepayment variant lost: %#v", back.Commitments[0].Detail)
	}
}

func TestUnknownDetailKindRejected(t *testing.T) {
	var c Commitment
	err := json.Unmarshal([]byte(`{"performer":"a","acceptor":"b","kind":"teleport","detail":{}}`), &c)
	if err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
}

func TestDigestSensitivity(t *testing.T) {
	a := sampleOffer()
	b := sampleOffer()
	if a.Digest() != b.Digest() {
		t.Fatalf("equal offers produced different digests")
	}
	b.ValidBefore = b.ValidBefore.Add(time.Second)
	if a.Digest() == b.Digest() {
		t.Fatalf("distinct offers produced equal digests")
	}
}

func TestPaymentAmount(t *testing.T) {
	offer := sampleOffer()
	if got := offer.Commitments[0].PaymentAmount(); got != 450 {
		t.Fatalf("prepayment amount = %d", got)
	}
	if got := offer.Commitments[1].PaymentAmount(); got != 0 {
		t.Fatalf("provision amount = %d, want 0", got)
	}
	if got := offer.Commitments[2].PaymentAmount(); got != 475 {
		t.Fatalf("postpayment amount = %d", got)
	}
}

func TestCoveredBy(t *testing.T) {
	departure := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	requested := TripProvision{
		From:         GeoPoint{Lat: 0, Lng: 0},
		To:           GeoPoint{Lat: 2, Lng: 0},
		DepartAfter:  departure,
		ArriveBefore: departure.Add(10 * time.Hour),
		Transport:    TransportTrain,
	}
	legA := TripProvision{
		From:         requested.From,
		To:           GeoPoint{Lat: 1, Lng: 0},
		DepartAfter:  departure.Add(time.Hour),
		ArriveBefore: departure.Add(4 * time.Hour),
		Transport:    requested.Transport,
	}
	legB := TripProvision{
		From:         legA.To,
		To:           requested.To,
		DepartAfter:  departure.Add(5 * time.Hour),
		ArriveBefore: departure.Add(9 * time.Hour),
		Transport:    requested.Transport,
	}
	if !requested.CoveredBy([]TripProvision{legA, legB}) {
		t.Fatalf("two-leg itinerary should cover the request")
	}
	late := legB
	late.ArriveBefore = requested.ArriveBefore.Add(time.Hour)
	if requested.CoveredBy([]TripProvision{legA, late}) {
		t.Fatalf("late arrival should not cover the request")
	}
	wrongMode := legB
	wrongMode.Transport = TransportBike
	if requested.CoveredBy([]TripProvision{legA, wrongMode}) {
		t.Fatalf("mixed transport should not cover the request")
	}
}
