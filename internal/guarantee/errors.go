package guarantee

import (
	"errors"
	"fmt"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
)

var (
	// ErrValidation rejects a malformed request before any message is sent.
	ErrValidation = errors.New("invalid request")

	// ErrInsufficientFunds occurs when issuance would drive the backing
	// account balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSignatureRefused surfaces a counterparty's (or our own) refusal to
	// countersign after independent verification.
	ErrSignatureRefused = errors.New("refused to countersign")

	// ErrAllOrNothing occurs when a multi-account revocation cannot
	// complete as a unit; zero mutation was attempted.
	ErrAllOrNothing = errors.New("revocation cannot complete as a unit")
)

// refusalError maps a counterparty refusal back onto local sentinels
// without exposing the verifier's record state.
func refusalError(r messaging.Refusal) error {
	var base error
	switch r.Code {
	case messaging.CodeValidation:
		base = ErrValidation
	case messaging.CodeStaleReference:
		base = ledger.ErrStaleReference
	case messaging.CodeInsufficientFunds:
		base = ErrInsufficientFunds
	case messaging.CodeAllOrNothing:
		base = ErrAllOrNothing
	case messaging.CodeSignatureRefused:
		base = ErrSignatureRefused
	case messaging.CodeRejected:
		base = ledger.ErrRecordConsumed
	default:
		return fmt.Errorf("refused: %s", r.Reason)
	}
	return fmt.Errorf("%w: %s", base, r.Reason)
}
