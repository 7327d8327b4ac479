package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/model"
)

var (
	// ErrStaleReference occurs when a referenced record was already consumed
	// or never existed.
	ErrStaleReference = errors.New("referenced record consumed or unknown")

	// ErrRecordConsumed is the terminal rejection for a double-consumption
	// race: the first transaction to commit wins, the loser gets this. The
	// protocol performs no automatic retry.
	ErrRecordConsumed = errors.New("record already consumed")

	// ErrUnauthorized indicates a missing or invalid required signature.
	ErrUnauthorized = errors.New("missing or invalid signature")
)

// Kind partitions records by body type.
type Kind string

const (
	KindAccount    Kind = "account"
	KindReserve    Kind = "reserve"
	KindGuarantee  Kind = "guarantee"
	KindCommitment Kind = "commitment"
	KindObligation Kind = "obligation"
	KindAgreement  Kind = "agreement"
)

// Record is one version of a ledger record. ID is the stable identity
// across versions; consuming version N and producing version N+1 under the
// same ID models change without in-place mutation.
type Record struct {
	ID      uuid.UUID `json:"id"`
	Version int       `json:"version"`
	Kind    Kind      `json:"kind"`
	Body    any       `json:"body"`
}

// NewRecord mints the first version of a record with a fresh identity.
func NewRecord(kind Kind, body any) Record {
	return Record{ID: uuid.New(), Version: 1, Kind: kind, Body: body}
}

// NextVersion produces the successor of rec with a replaced body.
func NextVersion(rec Record, body any) Record {
	return Record{ID: rec.ID, Version: rec.Version + 1, Kind: rec.Kind, Body: body}
}

// DirectiveKind tags authorization directives attached to a transaction.
type DirectiveKind string

const (
	// DirectiveAcceptOffer authorizes the full acceptance transaction.
	DirectiveAcceptOffer DirectiveKind = "accept_offer"
	// DirectiveConfirmOffer is the structurally minimal directive the
	// offeror's oracle countersigns after re-validating offer authenticity.
	// It reveals the offer and nothing else about the transaction.
	DirectiveConfirmOffer DirectiveKind = "confirm_offer"
)

// Directive is an authorization requirement attached to a transaction.
type Directive struct {
	Kind         DirectiveKind `json:"kind"`
	Offer        model.Offer   `json:"offer"`
	GuaranteeIDs []uuid.UUID   `json:"guarantee_ids,omitempty"`
	Signers      []model.Party `json:"signers"`
}

// Digest returns the digest an attestation signature covers.
func (d Directive) Digest() model.Digest { return model.DigestOf(d) }

// Signature is a detached signature by Signer over the digest Over.
type Signature struct {
	Signer model.Party  `json:"signer"`
	Over   model.Digest `json:"over"`
	Bytes  []byte       `json:"bytes"`
}

// Transaction atomically consumes its inputs and produces its outputs.
// Either the whole bundle commits or nothing does.
type Transaction struct {
	Inputs          []Record      `json:"inputs"`
	Outputs         []Record      `json:"outputs"`
	Directives      []Directive   `json:"directives,omitempty"`
	RequiredSigners []model.Party `json:"required_signers"`
	Signatures      []Signature   `json:"signatures,omitempty"`
}

type inputRef struct {
	ID      uuid.UUID `json:"id"`
	Version int       `json:"version"`
}

type txWire struct {
	Inputs          []inputRef    `json:"inputs"`
	Outputs         []Record      `json:"outputs"`
	Directives      []Directive   `json:"directives,omitempty"`
	RequiredSigners []model.Party `json:"required_signers"`
}

// Digest covers everything signers commit to: consumed references, produced
// records, directives and the signer set. Signatures are excluded.
func (t Transaction) Digest() model.Digest {
	wire := txWire{
		Outputs:         t.Outputs,
		Directives:      t.Directives,
		RequiredSigners: t.RequiredSigners,
	}
	for _, in := range t.Inputs {
		wire.Inputs = append(wire.Inputs, inputRef{ID: in.ID, Version: in.Version})
	}
	return model.DigestOf(wire)
}

// SignatureBy finds party's signature over the given digest, if present.
func (t Transaction) SignatureBy(party model.Party, over model.Digest) (Signature, bool) {
	for _, sig := range t.Signatures {
		if sig.Signer == party && sig.Over == over {
			return sig, true
		}
	}
	return Signature{}, false
}

// OutputsOfKind returns the produced records of one kind, in output order.
func (t Transaction) OutputsOfKind(kind Kind) []Record {
	var out []Record
	for _, rec := range t.Outputs {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// TxResult reports the identity of a committed transaction.
type TxResult struct {
	TxID uuid.UUID
}

// Store is the notarizing record store collaborator. FetchUnconsumed
// returns the current unconsumed version of each requested record, in
// request order, silently skipping records that are missing or consumed —
// callers compare counts (see FetchAll). Submit commits atomically and
// enforces consume-at-most-once plus signature requirements.
type Store interface {
	FetchUnconsumed(ctx context.Context, kind Kind, ids []uuid.UUID) ([]Record, error)
	Submit(ctx context.Context, tx Transaction) (TxResult, error)
}

// FetchAll fetches all ids and fails with ErrStaleReference on any
// shortfall, preserving request order for positional correlation.
func FetchAll(ctx context.Context, s Store, kind Kind, ids []uuid.UUID) ([]Record, error) {
	recs, err := s.FetchUnconsumed(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	if len(recs) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d %s record(s), found %d", ErrStaleReference, len(ids), kind, len(recs))
	}
	return recs, nil
}
