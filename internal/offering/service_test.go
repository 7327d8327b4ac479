package offering

import (
	"errors"
	"testing"
	"time"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/logging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/signing"
)

type fixedSource struct {
	offers []model.Offer
}

func (s fixedSource) ComposeOffers(model.Commitment, map[string]string) []model.Offer {
	return s.offers
}

func newTestService(t *testing.T, offers ...model.Offer) (*Service, *signing.Keyring) {
	t.Helper()
	keys := signing.NewKeyring()
	kp, err := signing.NewKeypair("provider")
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	keys.RegisterKeypair(kp)
	return NewService(fixedSource{offers: offers}, nil, kp, logging.Discard()), keys
}

func TestCountersignRecordedOffer(t *testing.T) {
	offer := offerExpiring(time.Now().Add(time.Hour), 100)
	svc, keys := newTestService(t, offer)

	got := svc.Query(model.Commitment{})
	if len(got) != 1 {
		t.Fatalf("query returned %d offer(s)", len(got))
	}

	dir := ledger.Directive{
		Kind:    ledger.DirectiveConfirmOffer,
		Offer:   got[0],
		Signers: []model.Party{"consumer", "provider"},
	}
	sig, err := svc.Countersign(dir)
	if err != nil {
		t.Fatalf("countersign: %v", err)
	}
	if sig.Signer != "provider" || !keys.Verify("provider", dir.Digest(), sig.Bytes) {
		t.Fatalf("attestation does not verify")
	}
}

func TestCountersignRefusesUnknownOffer(t *testing.T) {
	svc, _ := newTestService(t)

	dir := ledger.Directive{
		Kind:    ledger.DirectiveConfirmOffer,
		Offer:   offerExpiring(time.Now().Add(time.Hour), 100),
		Signers: []model.Party{"consumer", "provider"},
	}
	if _, err := svc.Countersign(dir); !errors.Is(err, ErrOfferUnverified) {
		t.Fatalf("expected ErrOfferUnverified, got %v", err)
	}
}

func TestCountersignRefusesWrongDirective(t *testing.T) {
	offer := offerExpiring(time.Now().Add(time.Hour), 100)
	svc, _ := newTestService(t, offer)
	svc.Query(model.Commitment{})

	dir := ledger.Directive{
		Kind:    ledger.DirectiveAcceptOffer,
		Offer:   offer,
		Signers: []model.Party{"consumer", "provider"},
	}
	if _, err := svc.Countersign(dir); !errors.Is(err, ErrDirectiveRejected) {
		t.Fatalf("expected ErrDirectiveRejected, got %v", err)
	}

	unlisted := ledger.Directive{Kind: ledger.DirectiveConfirmOffer, Offer: offer, Signers: []model.Party{"consumer"}}
	if _, err := svc.Countersign(unlisted); !errors.Is(err, ErrDirectiveRejected) {
		t.Fatalf("expected ErrDirectiveRejected for unlisted signer, got %v", err)
	}
}
