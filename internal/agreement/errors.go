package agreement

import (
	"errors"
	"fmt"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
)

var (
	// ErrValidation rejects acceptance attempted by a party other than the
	// offeree, or a malformed offer.
	ErrValidation = errors.New("invalid acceptance request")

	// ErrMissingGuarantee occurs when a listed guarantee cannot be fetched
	// as unconsumed.
	ErrMissingGuarantee = errors.New("guarantee consumed or unknown")

	// ErrCountMismatch occurs when the supplied guarantees do not pair 1:1
	// with the commitments that require one.
	ErrCountMismatch = errors.New("guarantee count does not match guarantee-requiring commitments")

	// ErrAmountMismatch occurs when a paired guarantee covers a different
	// amount than its commitment.
	ErrAmountMismatch = errors.New("guarantee amount does not match commitment")

	// ErrUntrustedGuarantor occurs when a paired guarantee was issued by a
	// guarantor the commitment does not trust.
	ErrUntrustedGuarantor = errors.New("guarantor not trusted by commitment")

	// ErrSignatureRefused surfaces the offeror's refusal to attest or
	// countersign the acceptance.
	ErrSignatureRefused = errors.New("offeror refused to sign")
)

// refusalError maps an offeror refusal back onto local sentinels.
func refusalError(r messaging.Refusal) error {
	var base error
	switch r.Code {
	case messaging.CodeValidation:
		base = ErrValidation
	case messaging.CodeStaleReference:
		base = ledger.ErrStaleReference
	case messaging.CodeSignatureRefused:
		base = ErrSignatureRefused
	case messaging.CodeRejected:
		base = ledger.ErrRecordConsumed
	default:
		return fmt.Errorf("refused: %s", r.Reason)
	}
	return fmt.Errorf("%w: %s", base, r.Reason)
}
