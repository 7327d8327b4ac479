package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Digest is a BLAKE2b-256 value used wherever content must be referenced
// without carrying it: offer authenticity, transaction signing, directives.
type Digest [32]byte

// String renders the digest as lowercase hex.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// MarshalText lets digests appear in JSON payloads and log attributes.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a lowercase hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	_, err := hex.Decode(d[:], text)
	return err
}

// DigestOf hashes the canonical JSON encoding of v. All digested values use
// tagged structs (never maps), so the encoding is deterministic.
func DigestOf(v any) Digest {
	data, err := json.Marshal(v)
	if err != nil {
		// Digested values are our own closed types; failing to encode one
		// is a programming error, not an input condition.
		panic(err)
	}
	return blake2b.Sum256(data)
}

// Offer is an ordered bundle of commitments proposed by an offeror to an
// offeree, valid within [ValidAfter, ValidBefore]. Its identity for
// authenticity purposes is its full structural content.
type Offer struct {
	Offeror     Party        `json:"offeror"`
	Offeree     Party        `json:"offeree"`
	ValidAfter  time.Time    `json:"valid_after"`
	ValidBefore time.Time    `json:"valid_before"`
	Commitments []Commitment `json:"commitments"`
}

// Digest returns the structural digest of the offer.
func (o Offer) Digest() Digest { return DigestOf(o) }
