package guarantee

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// Requester is the initiating side of the guarantee protocol: it asks a
// guarantor to freeze funds against its account and later to release them.
type Requester struct {
	party     model.Party
	store     ledger.Store
	signer    signing.Authorizer
	transport messaging.Transport
	logger    *slog.Logger
}

// NewRequester constructs the requester side for the signer's party.
func NewRequester(store ledger.Store, signer signing.Authorizer, transport messaging.Transport, logger *slog.Logger) *Requester {
	return &Requester{
		party:     signer.Party(),
		store:     store,
		signer:    signer,
		transport: transport,
		logger:    logger,
	}
}

// InitAccount asks the operator to bootstrap an account with an initial
// balance and returns its identity.
func (r *Requester) InitAccount(ctx context.Context, operator model.Party, initialBalance int64) (uuid.UUID, error) {
	if initialBalance <= 0 {
		return uuid.Nil, fmt.Errorf("%w: initial balance must be positive", ErrValidation)
	}
	s, err := r.transport.Open(ctx, r.party, operator)
	if err != nil {
		return uuid.Nil, err
	}
	defer s.Close()

	if err := s.Send(InitAccountRequest{InitialBalance: initialBalance}); err != nil {
		return uuid.Nil, err
	}
	msg, err := s.Receive(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	switch m := msg.(type) {
	case InitAccountResult:
		return m.AccountID, nil
	case messaging.Refusal:
		return uuid.Nil, refusalError(m)
	default:
		return uuid.Nil, fmt.Errorf("unexpected message %T", msg)
	}
}

// Issue asks the guarantor for one payment guarantee per amount, all
// secured by the given account. Returned ids correlate positionally with
// amounts.
func (r *Requester) Issue(ctx context.Context, guarantor model.Party, accountID uuid.UUID, amounts []int64) ([]uuid.UUID, error) {
	if len(amounts) == 0 {
		return nil, fmt.Errorf("%w: nothing to guarantee, the list is empty", ErrValidation)
	}
	for _, amount := range amounts {
		if amount <= 0 {
			return nil, fmt.Errorf("%w: each amount must be positive", ErrValidation)
		}
	}

	s, err := r.transport.Open(ctx, r.party, guarantor)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Send(IssueRequest{AccountID: accountID, Amounts: amounts}); err != nil {
		return nil, err
	}

	msg, err := s.Receive(ctx)
	if err != nil {
		return nil, err
	}
	var proposal messaging.Proposal
	switch m := msg.(type) {
	case messaging.Proposal:
		proposal = m
	case messaging.Refusal:
		return nil, refusalError(m)
	default:
		return nil, fmt.Errorf("unexpected message %T", msg)
	}

	ids, err := r.checkIssueProposal(proposal.Tx, guarantor, accountID, amounts)
	if err != nil {
		_ = s.Send(messaging.Refusal{Code: messaging.CodeSignatureRefused, Reason: err.Error()})
		return nil, err
	}
	if err := r.countersign(s, proposal.Tx); err != nil {
		return nil, err
	}
	if err := awaitCommit(ctx, s); err != nil {
		return nil, err
	}
	r.logger.Info("guarantees issued", "guarantor", guarantor, "count", len(ids))
	return ids, nil
}

// Revoke releases the listed guarantees, restoring the reserved amounts to
// their backing accounts. Mixed batches spanning several accounts are
// revoked as one unit.
func (r *Requester) Revoke(ctx context.Context, guarantor model.Party, guaranteeIDs []uuid.UUID) error {
	if len(guaranteeIDs) == 0 {
		return fmt.Errorf("%w: nothing to revoke, the list is empty", ErrValidation)
	}

	guarantees, err := ledger.FetchAll(ctx, r.store, ledger.KindGuarantee, guaranteeIDs)
	if err != nil {
		return err
	}

	s, err := r.transport.Open(ctx, r.party, guarantor)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Send(RevokeRequest{Guarantees: guarantees}); err != nil {
		return err
	}

	msg, err := s.Receive(ctx)
	if err != nil {
		return err
	}
	var proposal messaging.Proposal
	switch m := msg.(type) {
	case messaging.Proposal:
		proposal = m
	case messaging.Refusal:
		return refusalError(m)
	default:
		return fmt.Errorf("unexpected message %T", msg)
	}

	if err := r.checkRevokeProposal(proposal.Tx, guarantees); err != nil {
		_ = s.Send(messaging.Refusal{Code: messaging.CodeSignatureRefused, Reason: err.Error()})
		return err
	}
	if err := r.countersign(s, proposal.Tx); err != nil {
		return err
	}
	if err := awaitCommit(ctx, s); err != nil {
		return err
	}
	r.logger.Info("guarantees revoked", "guarantor", guarantor, "count", len(guaranteeIDs))
	return nil
}

// checkIssueProposal verifies, before countersigning, that the proposed
// transaction issues exactly the requested guarantees in order and debits
// only the requester's own account by exactly their sum.
func (r *Requester) checkIssueProposal(tx ledger.Transaction, guarantor model.Party, accountID uuid.UUID, amounts []int64) ([]uuid.UUID, error) {
	guarantees := tx.OutputsOfKind(ledger.KindGuarantee)
	if len(guarantees) != len(amounts) {
		return nil, fmt.Errorf("%w: proposed %d guarantee(s), requested %d", ErrSignatureRefused, len(guarantees), len(amounts))
	}
	ids := make([]uuid.UUID, len(guarantees))
	var total int64
	for i, rec := range guarantees {
		g, ok := rec.Body.(model.Guarantee)
		if !ok {
			return nil, fmt.Errorf("%w: malformed guarantee output", ErrSignatureRefused)
		}
		if g.Amount != amounts[i] {
			return nil, fmt.Errorf("%w: guarantee %d has amount %d, requested %d", ErrSignatureRefused, i, g.Amount, amounts[i])
		}
		if g.Requester != r.party || g.Guarantor != guarantor {
			return nil, fmt.Errorf("%w: guarantee %d names wrong parties", ErrSignatureRefused, i)
		}
		ids[i] = rec.ID
		total += g.Amount
	}

	if len(tx.Inputs) != 1 || tx.Inputs[0].ID != accountID || tx.Inputs[0].Kind != ledger.KindAccount {
		return nil, fmt.Errorf("%w: transaction debits a record other than our account", ErrSignatureRefused)
	}
	before, ok := tx.Inputs[0].Body.(model.Account)
	if !ok || before.Owner != r.party {
		return nil, fmt.Errorf("%w: debited account is not ours", ErrSignatureRefused)
	}
	accounts := tx.OutputsOfKind(ledger.KindAccount)
	if len(accounts) != 1 || accounts[0].ID != accountID {
		return nil, fmt.Errorf("%w: account is not re-versioned exactly once", ErrSignatureRefused)
	}
	after, ok := accounts[0].Body.(model.Account)
	if !ok || after.Balance != before.Balance-total {
		return nil, fmt.Errorf("%w: account debited by an unexpected amount", ErrSignatureRefused)
	}
	return ids, nil
}

// checkRevokeProposal mirrors the guarantor's verification: only our
// guarantees are consumed, their reserves match, and each touched account
// is restored by exactly the amounts its reserves held.
func (r *Requester) checkRevokeProposal(tx ledger.Transaction, guarantees []ledger.Record) error {
	wanted := make(map[uuid.UUID]model.Guarantee, len(guarantees))
	for _, rec := range guarantees {
		g, ok := rec.Body.(model.Guarantee)
		if !ok {
			return fmt.Errorf("%w: malformed guarantee record", ErrSignatureRefused)
		}
		wanted[rec.ID] = g
	}

	reserves := make(map[uuid.UUID]model.Reserve)
	consumedGuarantees := 0
	accountsBefore := make(map[uuid.UUID]model.Account)
	for _, in := range tx.Inputs {
		switch in.Kind {
		case ledger.KindGuarantee:
			if _, ok := wanted[in.ID]; !ok {
				return fmt.Errorf("%w: transaction consumes a guarantee we did not list", ErrSignatureRefused)
			}
			consumedGuarantees++
		case ledger.KindReserve:
			res, ok := in.Body.(model.Reserve)
			if !ok {
				return fmt.Errorf("%w: malformed reserve input", ErrSignatureRefused)
			}
			reserves[in.ID] = res
		case ledger.KindAccount:
			acct, ok := in.Body.(model.Account)
			if !ok || acct.Owner != r.party {
				return fmt.Errorf("%w: transaction consumes an account that is not ours", ErrSignatureRefused)
			}
			accountsBefore[in.ID] = acct
		default:
			return fmt.Errorf("%w: unexpected %s input", ErrSignatureRefused, in.Kind)
		}
	}
	if consumedGuarantees != len(wanted) {
		return fmt.Errorf("%w: not all listed guarantees are consumed", ErrSignatureRefused)
	}

	restored := make(map[uuid.UUID]int64)
	for _, g := range wanted {
		res, ok := reserves[g.ReserveID]
		if !ok || res.Amount != g.Amount {
			return fmt.Errorf("%w: reserve does not match its guarantee", ErrSignatureRefused)
		}
		restored[res.AccountID] += res.Amount
	}

	accounts := tx.OutputsOfKind(ledger.KindAccount)
	if len(tx.Outputs) != len(accounts) || len(accounts) != len(accountsBefore) {
		return fmt.Errorf("%w: transaction produces records besides restored accounts", ErrSignatureRefused)
	}
	for _, rec := range accounts {
		before, ok := accountsBefore[rec.ID]
		if !ok {
			return fmt.Errorf("%w: restored account was not consumed", ErrSignatureRefused)
		}
		after, okBody := rec.Body.(model.Account)
		if !okBody || after.Balance != before.Balance+restored[rec.ID] {
			return fmt.Errorf("%w: account restored by an unexpected amount", ErrSignatureRefused)
		}
	}
	return nil
}

func (r *Requester) countersign(s messaging.Session, tx ledger.Transaction) error {
	digest := tx.Digest()
	sig, err := r.signer.Sign(digest)
	if err != nil {
		return err
	}
	return s.Send(messaging.Approval{Sig: ledger.Signature{Signer: r.party, Over: digest, Bytes: sig}})
}

func awaitCommit(ctx context.Context, s messaging.Session) error {
	msg, err := s.Receive(ctx)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case messaging.Committed:
		return nil
	case messaging.Refusal:
		return refusalError(m)
	default:
		return fmt.Errorf("unexpected message %T", msg)
	}
}
