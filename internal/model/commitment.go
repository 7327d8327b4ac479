package model

import (
	"encoding/json"
	"fmt"
)

// Commitment is a unilateral promise from a performer to an acceptor. The
// subject matter and terms live in the Detail variant. Immutable value.
type Commitment struct {
	Performer Party
	Acceptor  Party
	Detail    Detail
}

// PaymentAmount returns the amount of a payment commitment, or 0 for
// non-payment variants.
func (c Commitment) PaymentAmount() int64 {
	switch d := c.Detail.(type) {
	case PrePayment:
		return d.Amount
	case PostPayment:
		return d.Amount
	default:
		return 0
	}
}

type commitmentWire struct {
	Performer Party           `json:"performer"`
	Acceptor  Party           `json:"acceptor"`
	Kind      DetailKind      `json:"kind"`
	Detail    json.RawMessage `json:"detail"`
}

// MarshalJSON encodes the detail behind a kind tag so the closed union
// survives persistence. The same bytes feed the offer digest.
func (c Commitment) MarshalJSON() ([]byte, error) {
	if c.Detail == nil {
		return nil, fmt.Errorf("commitment has no detail")
	}
	detail, err := json.Marshal(c.Detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(commitmentWire{
		Performer: c.Performer,
		Acceptor:  c.Acceptor,
		Kind:      c.Detail.Kind(),
		Detail:    detail,
	})
}

// UnmarshalJSON restores the concrete detail variant from its kind tag.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var wire commitmentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var detail Detail
	switch wire.Kind {
	case KindTripProvision:
		var d TripProvision
		if err := json.Unmarshal(wire.Detail, &d); err != nil {
			return err
		}
		detail = d
	case KindPrePayment:
		var d PrePayment
		if err := json.Unmarshal(wire.Detail, &d); err != nil {
			return err
		}
		detail = d
	case KindPostPayment:
		var d PostPayment
		if err := json.Unmarshal(wire.Detail, &d); err != nil {
			return err
		}
		detail = d
	case KindAction:
		var d Action
		if err := json.Unmarshal(wire.Detail, &d); err != nil {
			return err
		}
		detail = d
	default:
		return fmt.Errorf("unknown detail kind %q", wire.Kind)
	}
	c.Performer = wire.Performer
	c.Acceptor = wire.Acceptor
	c.Detail = detail
	return nil
}
