package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

// Property keys understood by TripSource. Unknown keys are ignored, so one
// opaque property bag can configure several data sources.
const (
	PropTrustedGuarantors  = "TrustedGuarantors"
	PropOfferValidity      = "OfferValidityPeriod"
	defaultValidityMinutes = 1800
)

// Discounts rewarding the consumer for reducing the provider's payment risk.
const (
	guaranteeDiscount               = 5
	prepaymentDiscount              = 10
	nonRefundablePrepaymentDiscount = 20
)

// TripSource composes trip provision offers for one transport mode over a
// travel schedule. It implements offering.DataSource.
type TripSource struct {
	transport model.TransportType
	schedule  Schedule
	now       func() time.Time
}

// NewTripSource builds a source serving one transport mode.
func NewTripSource(transport model.TransportType, schedule Schedule) *TripSource {
	return &TripSource{transport: transport, schedule: schedule, now: time.Now}
}

// Mock fleets mirroring a small regional operator.

// NewAirline has three daily flights: 8:00, 14:00 and 20:00.
func NewAirline() *TripSource {
	return NewTripSource(model.TransportAirliner, StrictSchedule{Hours: []int{8, 14, 20}})
}

// NewFerry has two daily ferries: 10:00 and 22:00.
func NewFerry() *TripSource {
	return NewTripSource(model.TransportFerry, StrictSchedule{Hours: []int{10, 22}})
}

// NewTrain has four daily trains: 7:00, 11:00, 15:00 and 19:00.
func NewTrain() *TripSource {
	return NewTripSource(model.TransportTrain, StrictSchedule{Hours: []int{7, 11, 15, 19}})
}

// NewTaxi is available around the clock.
func NewTaxi() *TripSource {
	return NewTripSource(model.TransportTaxi, FreeSchedule{})
}

// NewBikeRental hands out bikes from 9:00 to 21:00.
func NewBikeRental() *TripSource {
	return NewTripSource(model.TransportBike, BusinessHoursSchedule{OpenAt: 9, CloseAt: 21})
}

// NewCarRental hands out cars from 8:00 to 22:00.
func NewCarRental() *TripSource {
	return NewTripSource(model.TransportCar, BusinessHoursSchedule{OpenAt: 8, CloseAt: 22})
}

// ComposeOffers answers a trip provision request for this source's
// transport mode. Per matched travel window it composes a full
// non-refundable prepayment offer and, when trusted guarantors are
// configured, two further offers splitting the price across refundable
// prepayment and guaranteed post-payment.
func (t *TripSource) ComposeOffers(request model.Commitment, props map[string]string) []model.Offer {
	trip, ok := request.Detail.(model.TripProvision)
	if !ok || trip.Transport != t.transport {
		return nil
	}

	validAfter := t.now()
	validBefore := validAfter.Add(validityPeriod(props))
	guarantors := trustedGuarantors(props)

	var offers []model.Offer
	for _, w := range t.schedule.Windows(trip) {
		provision := model.Commitment{
			Performer: request.Performer,
			Acceptor:  request.Acceptor,
			Detail: model.TripProvision{
				From:         trip.From,
				To:           trip.To,
				DepartAfter:  w.Departure,
				ArriveBefore: w.Arrival,
				Transport:    t.transport,
			},
		}
		base := Price(trip)
		offers = append(offers, t.fullPrepaymentOffer(provision, validAfter, validBefore, base))
		if len(guarantors) > 0 {
			offers = append(offers,
				t.halfGuaranteedOffer(provision, validAfter, validBefore, base, guarantors),
				t.thirdsOffer(provision, validAfter, validBefore, base, guarantors))
		}
	}
	return offers
}

// 100% non-refundable prepayment.
func (t *TripSource) fullPrepaymentOffer(provision model.Commitment, validAfter, validBefore time.Time, base int64) model.Offer {
	return model.Offer{
		Offeror:     provision.Performer,
		Offeree:     provision.Acceptor,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Commitments: []model.Commitment{
			payment(provision, model.PrePayment{
				Amount:    ((100 - nonRefundablePrepaymentDiscount) * base) / 100,
				PayBefore: validBefore,
			}),
			provision,
		},
	}
}

// 50% refundable prepayment plus 50% guaranteed post-payment.
func (t *TripSource) halfGuaranteedOffer(provision model.Commitment, validAfter, validBefore time.Time, base int64, guarantors []model.Party) model.Offer {
	trip := provision.Detail.(model.TripProvision)
	refundableBefore := trip.DepartAfter
	return model.Offer{
		Offeror:     provision.Performer,
		Offeree:     provision.Acceptor,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Commitments: []model.Commitment{
			payment(provision, model.PrePayment{
				Amount:           ((100 - prepaymentDiscount) * base) / 200,
				PayBefore:        validBefore,
				RefundableBefore: &refundableBefore,
			}),
			provision,
			payment(provision, model.PostPayment{
				Amount:            ((100 - guaranteeDiscount) * base) / 200,
				PayBefore:         trip.ArriveBefore.Add(30 * time.Minute),
				TrustedGuarantors: guarantors,
			}),
		},
	}
}

// Thirds: non-refundable prepayment, refundable prepayment and guaranteed
// post-payment.
func (t *TripSource) thirdsOffer(provision model.Commitment, validAfter, validBefore time.Time, base int64, guarantors []model.Party) model.Offer {
	trip := provision.Detail.(model.TripProvision)
	refundableBefore := trip.DepartAfter
	return model.Offer{
		Offeror:     provision.Performer,
		Offeree:     provision.Acceptor,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Commitments: []model.Commitment{
			payment(provision, model.PrePayment{
				Amount:    ((100 - nonRefundablePrepaymentDiscount) * base) / 300,
				PayBefore: validBefore,
			}),
			payment(provision, model.PrePayment{
				Amount:           ((100 - prepaymentDiscount) * base) / 300,
				PayBefore:        validBefore,
				RefundableBefore: &refundableBefore,
			}),
			provision,
			payment(provision, model.PostPayment{
				Amount:            ((100 - guaranteeDiscount) * base) / 300,
				PayBefore:         trip.ArriveBefore.Add(30 * time.Minute),
				TrustedGuarantors: guarantors,
			}),
		},
	}
}

// payment builds a payment commitment flowing back from the provision's
// acceptor to its performer.
func payment(provision model.Commitment, detail model.Detail) model.Commitment {
	return model.Commitment{
		Performer: provision.Acceptor,
		Acceptor:  provision.Performer,
		Detail:    detail,
	}
}

func validityPeriod(props map[string]string) time.Duration {
	if raw, ok := props[PropOfferValidity]; ok {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValidityMinutes * time.Minute
}

func trustedGuarantors(props map[string]string) []model.Party {
	raw, ok := props[PropTrustedGuarantors]
	if !ok || raw == "" {
		return nil
	}
	var parties []model.Party
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p := model.Party(name)
		if !model.ContainsParty(parties, p) {
			parties = append(parties, p)
		}
	}
	return parties
}
