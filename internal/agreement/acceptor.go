package agreement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/offering"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// Acceptor is the consumer side of offer acceptance: it turns a collected
// offer into one atomic transaction binding commitments, obligations and the
// resulting agreement.
type Acceptor struct {
	party     model.Party
	store     ledger.Store
	signer    signing.Authorizer
	transport messaging.Transport
	logger    *slog.Logger
}

// NewAcceptor constructs the consumer side for the signer's party.
func NewAcceptor(store ledger.Store, signer signing.Authorizer, transport messaging.Transport, logger *slog.Logger) *Acceptor {
	return &Acceptor{
		party:     signer.Party(),
		store:     store,
		signer:    signer,
		transport: transport,
		logger:    logger,
	}
}

// Accept accepts the offer, consuming the listed guarantees. The ids must
// correlate positionally with the offer's guarantee-requiring commitments,
// in offer order. Returns the new agreement's identity.
func (a *Acceptor) Accept(ctx context.Context, offer model.Offer, guaranteeIDs []uuid.UUID) (uuid.UUID, error) {
	if offer.Offeree != a.party {
		return uuid.Nil, fmt.Errorf("%w: only the offeree %s may accept", ErrValidation, offer.Offeree)
	}
	if len(offer.Commitments) == 0 {
		return uuid.Nil, fmt.Errorf("%w: offer carries no commitments", ErrValidation)
	}

	commitments := make([]ledger.Record, len(offer.Commitments))
	for i, c := range offer.Commitments {
		commitments[i] = ledger.NewRecord(ledger.KindCommitment, model.CommitmentRecord{Commitment: c})
	}

	// Commitments requiring a guarantee, in offer order. The caller's ids
	// pair with these positionally.
	var needy []int
	for i, c := range offer.Commitments {
		if pp, ok := c.Detail.(model.PostPayment); ok && pp.RequiresGuarantee() {
			needy = append(needy, i)
		}
	}

	var guarantees []ledger.Record
	var obligations []ledger.Record
	if len(needy) > 0 || len(guaranteeIDs) > 0 {
		fetched, err := ledger.FetchAll(ctx, a.store, ledger.KindGuarantee, guaranteeIDs)
		if err != nil {
			if errors.Is(err, ledger.ErrStaleReference) {
				return uuid.Nil, fmt.Errorf("%w: %v", ErrMissingGuarantee, err)
			}
			return uuid.Nil, err
		}
		if len(fetched) != len(needy) {
			return uuid.Nil, fmt.Errorf("%w: %d guarantee(s) for %d commitment(s)", ErrCountMismatch, len(fetched), len(needy))
		}
		guarantees = fetched
		for i, at := range needy {
			c := offer.Commitments[at]
			g, ok := guarantees[i].Body.(model.Guarantee)
			if !ok {
				return uuid.Nil, fmt.Errorf("%w: malformed guarantee record", ErrMissingGuarantee)
			}
			pp := c.Detail.(model.PostPayment)
			if g.Amount != pp.Amount {
				return uuid.Nil, fmt.Errorf("%w: guarantee %d covers %d, commitment needs %d", ErrAmountMismatch, i, g.Amount, pp.Amount)
			}
			if !pp.Trusts(g.Guarantor) {
				return uuid.Nil, fmt.Errorf("%w: %s", ErrUntrustedGuarantor, g.Guarantor)
			}
			obligations = append(obligations, ledger.NewRecord(ledger.KindObligation, model.Obligation{
				Payer:        c.Performer,
				Guarantor:    g.Guarantor,
				ReserveID:    g.ReserveID,
				Beneficiary:  c.Acceptor,
				CommitmentID: commitments[at].ID,
			}))
		}
	}

	commitmentIDs := make([]uuid.UUID, len(commitments))
	for i, rec := range commitments {
		commitmentIDs[i] = rec.ID
	}
	obligationIDs := make([]uuid.UUID, len(obligations))
	for i, rec := range obligations {
		obligationIDs[i] = rec.ID
	}
	agreement := ledger.NewRecord(ledger.KindAgreement, model.Agreement{
		Provider:      offer.Offeror,
		Consumer:      a.party,
		CommitmentIDs: commitmentIDs,
		ObligationIDs: obligationIDs,
	})

	signers := []model.Party{a.party, offer.Offeror}
	accept := ledger.Directive{Kind: ledger.DirectiveAcceptOffer, Offer: offer, GuaranteeIDs: guaranteeIDs, Signers: signers}
	// The confirm directive reveals the offer and nothing else; the oracle
	// attests it without seeing the surrounding transaction.
	confirm := ledger.Directive{Kind: ledger.DirectiveConfirmOffer, Offer: offer, Signers: signers}

	outputs := append(append(commitments, obligations...), agreement)
	tx := ledger.Transaction{
		Inputs:          guarantees,
		Outputs:         outputs,
		Directives:      []ledger.Directive{accept, confirm},
		RequiredSigners: signers,
	}

	digest := tx.Digest()
	sig, err := a.signer.Sign(digest)
	if err != nil {
		return uuid.Nil, err
	}
	tx.Signatures = append(tx.Signatures, ledger.Signature{Signer: a.party, Over: digest, Bytes: sig})

	attestation, err := a.confirmOffer(ctx, offer.Offeror, confirm)
	if err != nil {
		return uuid.Nil, err
	}
	tx.Signatures = append(tx.Signatures, attestation)

	if err := a.collectAndFinalize(ctx, offer.Offeror, tx); err != nil {
		return uuid.Nil, err
	}
	a.logger.Info("offer accepted", "offeror", offer.Offeror, "agreement", agreement.ID,
		"commitments", len(commitments), "obligations", len(obligations))
	return agreement.ID, nil
}

// confirmOffer obtains the oracle's attestation over the confirm directive.
func (a *Acceptor) confirmOffer(ctx context.Context, offeror model.Party, confirm ledger.Directive) (ledger.Signature, error) {
	s, err := a.transport.Open(ctx, a.party, offeror)
	if err != nil {
		return ledger.Signature{}, err
	}
	defer s.Close()

	if err := s.Send(offering.ConfirmRequest{Directive: confirm}); err != nil {
		return ledger.Signature{}, err
	}
	msg, err := s.Receive(ctx)
	if err != nil {
		return ledger.Signature{}, err
	}
	switch m := msg.(type) {
	case offering.ConfirmResponse:
		return m.Sig, nil
	case messaging.Refusal:
		return ledger.Signature{}, refusalError(m)
	default:
		return ledger.Signature{}, fmt.Errorf("unexpected message %T", msg)
	}
}

// collectAndFinalize gathers the offeror's full signature, submits the
// transaction and reports the commit back.
func (a *Acceptor) collectAndFinalize(ctx context.Context, offeror model.Party, tx ledger.Transaction) error {
	s, err := a.transport.Open(ctx, a.party, offeror)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Send(messaging.Proposal{Tx: tx}); err != nil {
		return err
	}
	msg, err := s.Receive(ctx)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case messaging.Approval:
		tx.Signatures = append(tx.Signatures, m.Sig)
	case messaging.Refusal:
		return refusalError(m)
	default:
		return fmt.Errorf("unexpected message %T", msg)
	}

	res, err := a.store.Submit(ctx, tx)
	if err != nil {
		return err
	}
	_ = s.Send(messaging.Committed{TxID: res.TxID})
	return nil
}
