package model

import "github.com/google/uuid"

// Versioned record bodies. Records never mutate in place: a change consumes
// the current version and produces a successor through the ledger store.

// Account is the payer-side balance operated by a guarantor. Balance stays
// non-negative: issuance refuses to overdraw.
type Account struct {
	Owner   Party `json:"owner"`
	Balance int64 `json:"balance"`
}

// Reserve freezes funds against an account to back one guarantee. Born and
// consumed together with its guarantee.
type Reserve struct {
	AccountID uuid.UUID `json:"account_id"`
	Amount    int64     `json:"amount"`
}

// Guarantee is the guarantor's promise, backed 1:1 by a reserve, that the
// requester's payment will be honored.
type Guarantee struct {
	Requester Party     `json:"requester"`
	Guarantor Party     `json:"guarantor"`
	Amount    int64     `json:"amount"`
	ReserveID uuid.UUID `json:"reserve_id"`
}

// Obligation links a guaranteed payment commitment to its backing
// guarantee's reserve. Derived during acceptance, never created standalone.
type Obligation struct {
	Payer        Party     `json:"payer"`
	Guarantor    Party     `json:"guarantor"`
	ReserveID    uuid.UUID `json:"reserve_id"`
	Beneficiary  Party     `json:"beneficiary"`
	CommitmentID uuid.UUID `json:"commitment_id"`
}

// CommitmentRecord materializes one offer commitment onto the ledger.
type CommitmentRecord struct {
	Commitment Commitment `json:"commitment"`
}

// Agreement is the terminal record of an accepted offer. Its referenced
// commitment and obligation records are produced in the same transaction.
type Agreement struct {
	Provider      Party       `json:"provider"`
	Consumer      Party       `json:"consumer"`
	CommitmentIDs []uuid.UUID `json:"commitment_ids"`
	ObligationIDs []uuid.UUID `json:"obligation_ids"`
}
