package offering

import (
	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/model"
)

// CollectRequest asks a provider for offers fulfilling the requested
// commitment. The performer in the request is a placeholder; each provider
// answers with commitments naming itself.
type CollectRequest struct {
	Request model.Commitment
}

// CollectResponse carries the provider's composed offers. An empty slice is
// a valid answer: nothing matched.
type CollectResponse struct {
	Offers []model.Offer
}

// ConfirmRequest asks the offeror's oracle to attest a confirm-offer
// directive. Only the directive is revealed, never the surrounding
// transaction.
type ConfirmRequest struct {
	Directive ledger.Directive
}

// ConfirmResponse returns the oracle's attestation signature over the
// directive digest.
type ConfirmResponse struct {
	Sig ledger.Signature
}
