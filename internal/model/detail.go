package model

import "time"

// TransportType enumerates supported provision modes.
type TransportType string

const (
	TransportAirliner TransportType = "airliner"
	TransportBike     TransportType = "bike"
	TransportCar      TransportType = "car"
	TransportFerry    TransportType = "ferry"
	TransportTaxi     TransportType = "taxi"
	TransportTrain    TransportType = "train"
)

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DetailKind tags the closed set of commitment detail variants.
type DetailKind string

const (
	KindTripProvision DetailKind = "trip_provision"
	KindPrePayment    DetailKind = "pre_payment"
	KindPostPayment   DetailKind = "post_payment"
	KindAction        DetailKind = "action"
)

// Detail is the sealed union of commitment terms. Every consumption site
// switches on the concrete variant; adding a variant requires revisiting
// each switch.
type Detail interface {
	Kind() DetailKind
	sealedDetail()
}

// TripProvision describes subject-matter terms of a trip provision
// commitment: route, requested time window and transport mode.
type TripProvision struct {
	From         GeoPoint      `json:"from"`
	To           GeoPoint      `json:"to"`
	DepartAfter  time.Time     `json:"depart_after"`
	ArriveBefore time.Time     `json:"arrive_before"`
	Transport    TransportType `json:"transport"`
}

func (TripProvision) Kind() DetailKind { return KindTripProvision }
func (TripProvision) sealedDetail()    {}

// CoveredBy reports whether the requested trip is covered by the given legs:
// same transport, same endpoints at the extremes, departure no earlier and
// arrival no later than requested.
func (t TripProvision) CoveredBy(legs []TripProvision) bool {
	if len(legs) == 0 {
		return false
	}
	for _, leg := range legs {
		if leg.Transport != t.Transport {
			return false
		}
	}
	first, last := legs[0], legs[len(legs)-1]
	return t.From == first.From &&
		t.To == last.To &&
		!t.DepartAfter.After(first.DepartAfter) &&
		!t.ArriveBefore.Before(last.ArriveBefore)
}

// PrePayment describes a payment due before provision. A nil
// RefundableBefore means the payment is non-refundable.
type PrePayment struct {
	Amount           int64      `json:"amount"`
	PayBefore        time.Time  `json:"pay_before"`
	RefundableBefore *time.Time `json:"refundable_before,omitempty"`
}

func (PrePayment) Kind() DetailKind { return KindPrePayment }
func (PrePayment) sealedDetail()    {}

// PostPayment describes a payment due after provision, honored only when
// backed by a guarantee from one of the trusted guarantors.
type PostPayment struct {
	Amount            int64     `json:"amount"`
	PayBefore         time.Time `json:"pay_before"`
	TrustedGuarantors []Party   `json:"trusted_guarantors"`
}

func (PostPayment) Kind() DetailKind { return KindPostPayment }
func (PostPayment) sealedDetail()    {}

// Trusts reports whether g belongs to the trusted guarantor set.
func (p PostPayment) Trusts(g Party) bool {
	return ContainsParty(p.TrustedGuarantors, g)
}

// RequiresGuarantee reports whether accepting this payment commitment
// consumes a payment guarantee.
func (p PostPayment) RequiresGuarantee() bool {
	return len(p.TrustedGuarantors) > 0
}

// Action carries opaque action terms.
type Action struct {
	Note string `json:"note"`
}

func (Action) Kind() DetailKind { return KindAction }
func (Action) sealedDetail()    {}
