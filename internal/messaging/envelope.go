package messaging

import (
	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
)

// Shared handshake vocabulary. Protocol packages define their own request
// messages; the propose/approve/refuse/commit steps are common to every
// joint-signature exchange.

// Refusal codes map cross-party rule violations back to the initiator's
// sentinel errors without leaking the verifier's record state.
const (
	CodeValidation        = "validation"
	CodeStaleReference    = "stale_reference"
	CodeInsufficientFunds = "insufficient_funds"
	CodeAllOrNothing      = "all_or_nothing"
	CodeSignatureRefused  = "signature_refused"
	CodeRejected          = "rejected"
)

// Proposal carries a transaction self-signed by its builder, awaiting the
// counterparty's countersignature.
type Proposal struct {
	Tx ledger.Transaction
}

// Approval returns the counterparty's countersignature.
type Approval struct {
	Sig ledger.Signature
}

// Refusal aborts the handshake; no effect persists on either side.
type Refusal struct {
	Code   string
	Reason string
}

// Committed reports successful finalization.
type Committed struct {
	TxID uuid.UUID
}
