package agreement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/notification"
	"github.com/mobiclear/mobiclear/internal/offering"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// Provider is the offeror side: it answers offer collection, attests
// confirm directives through its oracle and countersigns acceptances.
type Provider struct {
	party    model.Party
	signer   signing.Authorizer
	oracle   *offering.Service
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewProvider constructs the offeror side for the signer's party.
func NewProvider(signer signing.Authorizer, oracle *offering.Service, notifier notification.Notifier, logger *slog.Logger) *Provider {
	return &Provider{
		party:    signer.Party(),
		signer:   signer,
		oracle:   oracle,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle serves one inbound session, dispatching on the opening message.
func (p *Provider) Handle(ctx context.Context, s messaging.Session) {
	defer s.Close()
	msg, err := s.Receive(ctx)
	if err != nil {
		return
	}
	switch m := msg.(type) {
	case offering.CollectRequest:
		p.handleCollect(s, m)
	case offering.ConfirmRequest:
		p.handleConfirm(s, m)
	case messaging.Proposal:
		p.handleSign(ctx, s, m)
	default:
		_ = s.Send(messaging.Refusal{Code: messaging.CodeValidation, Reason: fmt.Sprintf("unexpected message %T", msg)})
	}
}

func (p *Provider) handleCollect(s messaging.Session, m offering.CollectRequest) {
	offers := p.oracle.Query(m.Request)
	p.logger.Info("offers collected", "consumer", s.Peer(), "count", len(offers))
	_ = s.Send(offering.CollectResponse{Offers: offers})
}

func (p *Provider) handleConfirm(s messaging.Session, m offering.ConfirmRequest) {
	sig, err := p.oracle.Countersign(m.Directive)
	if err != nil {
		p.logger.Warn("attestation refused", "consumer", s.Peer(), "err", err)
		_ = s.Send(messaging.Refusal{Code: messaging.CodeSignatureRefused, Reason: err.Error()})
		return
	}
	_ = s.Send(offering.ConfirmResponse{Sig: sig})
}

func (p *Provider) handleSign(ctx context.Context, s messaging.Session, m messaging.Proposal) {
	if err := p.checkAcceptance(m.Tx, s.Peer()); err != nil {
		p.logger.Warn("acceptance refused", "consumer", s.Peer(), "err", err)
		_ = s.Send(messaging.Refusal{Code: messaging.CodeSignatureRefused, Reason: err.Error()})
		return
	}

	digest := m.Tx.Digest()
	raw, err := p.signer.Sign(digest)
	if err != nil {
		_ = s.Send(messaging.Refusal{Code: messaging.CodeRejected, Reason: err.Error()})
		return
	}
	if err := s.Send(messaging.Approval{Sig: ledger.Signature{Signer: p.party, Over: digest, Bytes: raw}}); err != nil {
		return
	}

	committed, err := messaging.Expect[messaging.Committed](ctx, s)
	if err != nil {
		return
	}
	p.logger.Info("acceptance committed", "consumer", s.Peer(), "tx", committed.TxID)
	if p.notifier != nil {
		_ = p.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindOfferAccepted,
			Destination: string(p.party),
			Body:        fmt.Sprintf("offer accepted by %s", s.Peer()),
		})
	}
}

// checkAcceptance verifies, before countersigning, that the proposed
// transaction realizes an offer this party actually originated: the accept
// directive names us as offeror and the peer as offeree, our oracle still
// vouches for the offer, its attestation is already merged, and the produced
// commitments are exactly the offer's.
func (p *Provider) checkAcceptance(tx ledger.Transaction, peer model.Party) error {
	var accept, confirm *ledger.Directive
	for i := range tx.Directives {
		switch tx.Directives[i].Kind {
		case ledger.DirectiveAcceptOffer:
			accept = &tx.Directives[i]
		case ledger.DirectiveConfirmOffer:
			confirm = &tx.Directives[i]
		}
	}
	if accept == nil || confirm == nil {
		return fmt.Errorf("transaction lacks acceptance directives")
	}
	offer := accept.Offer
	if offer.Offeror != p.party {
		return fmt.Errorf("offer was made by %s, not us", offer.Offeror)
	}
	if offer.Offeree != peer {
		return fmt.Errorf("offer was made to %s, not the requesting party", offer.Offeree)
	}
	if confirm.Offer.Digest() != offer.Digest() {
		return fmt.Errorf("confirm directive covers a different offer")
	}
	if _, ok := tx.SignatureBy(p.party, confirm.Digest()); !ok {
		return fmt.Errorf("oracle attestation missing")
	}

	produced := tx.OutputsOfKind(ledger.KindCommitment)
	if len(produced) != len(offer.Commitments) {
		return fmt.Errorf("transaction produces %d commitment(s), offer has %d", len(produced), len(offer.Commitments))
	}
	for i, rec := range produced {
		body, ok := rec.Body.(model.CommitmentRecord)
		if !ok {
			return fmt.Errorf("malformed commitment output")
		}
		if model.DigestOf(body.Commitment) != model.DigestOf(offer.Commitments[i]) {
			return fmt.Errorf("commitment %d differs from the offer", i)
		}
	}
	return nil
}
