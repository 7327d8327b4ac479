package signing

import (
	"testing"

	"github.com/mobiclear/mobiclear/internal/model"
)

func TestSignAndVerify(t *testing.T) {
	keys := NewKeyring()
	alice, err := NewKeypair("alice")
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	keys.RegisterKeypair(alice)

	digest := model.DigestOf("payload")
	sig, err := alice.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !keys.Verify("alice", digest, sig) {
		t.Fatalf("valid signature rejected")
	}
	if keys.Verify("alice", model.DigestOf("other payload"), sig) {
		t.Fatalf("signature verified against a different digest")
	}
	if keys.Verify("bob", digest, sig) {
		t.Fatalf("signature verified for an unregistered party")
	}
}

func TestKeysAreDistinctPerParty(t *testing.T) {
	keys := NewKeyring()
	alice, _ := NewKeypair("alice")
	bob, _ := NewKeypair("bob")
	keys.RegisterKeypair(alice)
	keys.RegisterKeypair(bob)

	digest := model.DigestOf("payload")
	sig, _ := bob.Sign(digest)
	if keys.Verify("alice", digest, sig) {
		t.Fatalf("bob's signature verified as alice's")
	}
}
