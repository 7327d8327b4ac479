package offering

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// ErrOfferUnverified occurs when an offer presented for confirmation was not
// originated by this service or has already expired.
var ErrOfferUnverified = errors.New("offer unknown or expired")

// ErrDirectiveRejected occurs when a confirmation request names the wrong
// directive kind or does not list this party among its signers.
var ErrDirectiveRejected = errors.New("directive rejected")

// DataSource composes concrete offers for a requested commitment. The props
// carry provider configuration such as trusted guarantors and validity.
type DataSource interface {
	ComposeOffers(request model.Commitment, props map[string]string) []model.Offer
}

// MultiSource fans a request out to several sources and concatenates their
// answers. Sources that cannot serve the request contribute nothing.
type MultiSource []DataSource

func (m MultiSource) ComposeOffers(request model.Commitment, props map[string]string) []model.Offer {
	var offers []model.Offer
	for _, src := range m {
		offers = append(offers, src.ComposeOffers(request, props)...)
	}
	return offers
}

// Service is the provider-side offer oracle. Every offer it hands out is
// remembered in the verification cache until expiry, and only remembered
// offers are countersigned back.
type Service struct {
	party  model.Party
	source DataSource
	props  map[string]string
	signer signing.Authorizer
	cache  *VerificationCache
	logger *slog.Logger
}

// NewService constructs the oracle for the signer's party.
func NewService(source DataSource, props map[string]string, signer signing.Authorizer, logger *slog.Logger) *Service {
	return &Service{
		party:  signer.Party(),
		source: source,
		props:  props,
		signer: signer,
		cache:  NewVerificationCache(),
		logger: logger,
	}
}

// Party returns the party this oracle signs for.
func (s *Service) Party() model.Party { return s.party }

// Query composes offers for the request and records each one so it can be
// verified when the offeree comes back to confirm.
func (s *Service) Query(request model.Commitment) []model.Offer {
	offers := s.cache.Record(s.source.ComposeOffers(request, s.props))
	s.logger.Debug("offers composed", "count", len(offers))
	return offers
}

// Countersign attests a confirm-offer directive after re-validating that the
// embedded offer is one this service originated and it has not expired.
func (s *Service) Countersign(dir ledger.Directive) (ledger.Signature, error) {
	if dir.Kind != ledger.DirectiveConfirmOffer {
		return ledger.Signature{}, fmt.Errorf("%w: cannot attest %s", ErrDirectiveRejected, dir.Kind)
	}
	if !model.ContainsParty(dir.Signers, s.party) {
		return ledger.Signature{}, fmt.Errorf("%w: %s is not a listed signer", ErrDirectiveRejected, s.party)
	}
	if !s.cache.Verify(dir.Offer) {
		return ledger.Signature{}, ErrOfferUnverified
	}
	digest := dir.Digest()
	raw, err := s.signer.Sign(digest)
	if err != nil {
		return ledger.Signature{}, err
	}
	return ledger.Signature{Signer: s.party, Over: digest, Bytes: raw}, nil
}
