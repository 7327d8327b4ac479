package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/mobiclear/mobiclear/internal/model"
)

// Authorizer signs digests on behalf of one party. The concrete signature
// scheme is a collaborator concern; this layer only demands that the keyring
// can verify what an authorizer produces.
type Authorizer interface {
	Party() model.Party
	Sign(digest model.Digest) ([]byte, error)
}

// Keypair is an Ed25519 authorizer holding its private key in memory.
type Keypair struct {
	party model.Party
	pub   ed25519.PublicKey
	priv  ed25519.PrivateKey
}

// NewKeypair generates a fresh Ed25519 keypair for the party.
func NewKeypair(party model.Party) (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key for %s: %w", party, err)
	}
	return &Keypair{party: party, pub: pub, priv: priv}, nil
}

// Party returns the owning party.
func (k *Keypair) Party() model.Party { return k.party }

// Public returns the verifying key for keyring registration.
func (k *Keypair) Public() ed25519.PublicKey { return k.pub }

// Sign signs the digest with the private key.
func (k *Keypair) Sign(digest model.Digest) ([]byte, error) {
	return ed25519.Sign(k.priv, digest[:]), nil
}

// Keyring maps parties to their verifying keys. Safe for concurrent use.
type Keyring struct {
	mu   sync.RWMutex
	keys map[model.Party]ed25519.PublicKey
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[model.Party]ed25519.PublicKey)}
}

// Register records the verifying key for a party, replacing any prior key.
func (r *Keyring) Register(party model.Party, pub ed25519.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[party] = pub
}

// RegisterKeypair registers kp's public key and returns kp for chaining.
func (r *Keyring) RegisterKeypair(kp *Keypair) *Keypair {
	r.Register(kp.Party(), kp.Public())
	return kp
}

// Verify reports whether sig is a valid signature by party over digest.
func (r *Keyring) Verify(party model.Party, digest model.Digest, sig []byte) bool {
	r.mu.RLock()
	pub, ok := r.keys[party]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return ed25519.Verify(pub, digest[:], sig)
}
