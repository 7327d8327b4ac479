package model

// Party identifies a protocol participant. Identity issuance and naming are
// handled outside this layer; here a party is an opaque stable name whose
// signing key is registered on the keyring.
type Party string

// ContainsParty reports whether p appears in the given set.
func ContainsParty(set []Party, p Party) bool {
	for _, candidate := range set {
		if candidate == p {
			return true
		}
	}
	return false
}
