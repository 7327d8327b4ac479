package guarantee

import (
	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
)

// IssueRequest asks the guarantor to reserve funds on the requester's
// account, one reserve/guarantee pair per amount, positionally correlated.
type IssueRequest struct {
	AccountID uuid.UUID
	Amounts   []int64
}

// RevokeRequest forwards the requester's view of the guarantee records to
// revoke. The guarantor trusts only what it can itself re-fetch as
// unconsumed.
type RevokeRequest struct {
	Guarantees []ledger.Record
}

// InitAccountRequest asks the operator to bootstrap an account with an
// initial balance. Demo/test lifecycle entry: this mints value.
type InitAccountRequest struct {
	InitialBalance int64
}

// InitAccountResult returns the new account's identity.
type InitAccountResult struct {
	AccountID uuid.UUID
}
