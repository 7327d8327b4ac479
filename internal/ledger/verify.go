package ledger

import (
	"fmt"

	"github.com/mobiclear/mobiclear/internal/signing"
)

// verifyTransaction checks every required signer against the transaction
// digest and every confirm directive against its attestation signature.
// Stores run this before touching any record.
func verifyTransaction(tx Transaction, keys *signing.Keyring) error {
	digest := tx.Digest()
	for _, signer := range tx.RequiredSigners {
		sig, ok := tx.SignatureBy(signer, digest)
		if !ok || !keys.Verify(signer, digest, sig.Bytes) {
			return fmt.Errorf("%w: required signer %s", ErrUnauthorized, signer)
		}
	}
	for _, dir := range tx.Directives {
		if dir.Kind != DirectiveConfirmOffer {
			continue
		}
		dd := dir.Digest()
		sig, ok := tx.SignatureBy(dir.Offer.Offeror, dd)
		if !ok || !keys.Verify(dir.Offer.Offeror, dd, sig.Bytes) {
			return fmt.Errorf("%w: confirm attestation by %s", ErrUnauthorized, dir.Offer.Offeror)
		}
	}
	return nil
}
