package guarantee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/notification"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// Guarantor is the responding side of the guarantee protocol: the payment
// operator that freezes and releases funds on requesters' accounts.
type Guarantor struct {
	party    model.Party
	store    ledger.Store
	signer   signing.Authorizer
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewGuarantor constructs the operator side for the signer's party.
func NewGuarantor(store ledger.Store, signer signing.Authorizer, notifier notification.Notifier, logger *slog.Logger) *Guarantor {
	return &Guarantor{
		party:    signer.Party(),
		store:    store,
		signer:   signer,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle serves one inbound session, dispatching on the opening message.
func (g *Guarantor) Handle(ctx context.Context, s messaging.Session) {
	defer s.Close()
	msg, err := s.Receive(ctx)
	if err != nil {
		return
	}
	switch m := msg.(type) {
	case IssueRequest:
		g.handleIssue(ctx, s, m)
	case RevokeRequest:
		g.handleRevoke(ctx, s, m)
	case InitAccountRequest:
		g.handleInitAccount(ctx, s, m)
	default:
		_ = s.Send(messaging.Refusal{Code: messaging.CodeValidation, Reason: fmt.Sprintf("unexpected message %T", msg)})
	}
}

func (g *Guarantor) handleInitAccount(ctx context.Context, s messaging.Session, m InitAccountRequest) {
	if m.InitialBalance <= 0 {
		g.refuse(s, messaging.CodeValidation, "initial balance must be positive")
		return
	}
	account := ledger.NewRecord(ledger.KindAccount, model.Account{Owner: s.Peer(), Balance: m.InitialBalance})
	tx := ledger.Transaction{
		Outputs:         []ledger.Record{account},
		RequiredSigners: []model.Party{g.party},
	}
	digest := tx.Digest()
	sig, err := g.signer.Sign(digest)
	if err != nil {
		g.refuse(s, messaging.CodeRejected, err.Error())
		return
	}
	tx.Signatures = append(tx.Signatures, ledger.Signature{Signer: g.party, Over: digest, Bytes: sig})
	if _, err := g.store.Submit(ctx, tx); err != nil {
		g.refuse(s, messaging.CodeRejected, err.Error())
		return
	}
	g.logger.Info("account initialized", "owner", s.Peer(), "balance", m.InitialBalance)
	_ = s.Send(InitAccountResult{AccountID: account.ID})
}

func (g *Guarantor) handleIssue(ctx context.Context, s messaging.Session, m IssueRequest) {
	if len(m.Amounts) == 0 {
		g.refuse(s, messaging.CodeValidation, "nothing to guarantee, the list is empty")
		return
	}
	var total int64
	for _, amount := range m.Amounts {
		if amount <= 0 {
			g.refuse(s, messaging.CodeValidation, "each amount must be positive")
			return
		}
		total += amount
	}

	accounts, err := ledger.FetchAll(ctx, g.store, ledger.KindAccount, []uuid.UUID{m.AccountID})
	if err != nil {
		g.refuse(s, messaging.CodeStaleReference, "account unavailable")
		return
	}
	accountRec := accounts[0]
	account, ok := accountRec.Body.(model.Account)
	if !ok {
		g.refuse(s, messaging.CodeStaleReference, "account unavailable")
		return
	}
	if account.Balance < total {
		g.refuse(s, messaging.CodeInsufficientFunds, fmt.Sprintf("balance %d cannot cover %d", account.Balance, total))
		return
	}

	account.Balance -= total
	outputs := []ledger.Record{ledger.NextVersion(accountRec, account)}
	for _, amount := range m.Amounts {
		reserve := ledger.NewRecord(ledger.KindReserve, model.Reserve{AccountID: m.AccountID, Amount: amount})
		outputs = append(outputs, reserve)
		outputs = append(outputs, ledger.NewRecord(ledger.KindGuarantee, model.Guarantee{
			Requester: s.Peer(),
			Guarantor: g.party,
			Amount:    amount,
			ReserveID: reserve.ID,
		}))
	}

	tx := ledger.Transaction{
		Inputs:          accounts,
		Outputs:         outputs,
		RequiredSigners: []model.Party{g.party, s.Peer()},
	}
	if !g.finalize(ctx, s, tx) {
		return
	}
	g.notify(ctx, s.Peer(), notification.KindGuaranteeIssued,
		fmt.Sprintf("%d guarantee(s) issued for a total of %d", len(m.Amounts), total))
}

func (g *Guarantor) handleRevoke(ctx context.Context, s messaging.Session, m RevokeRequest) {
	if len(m.Guarantees) == 0 {
		g.refuse(s, messaging.CodeValidation, "nothing to revoke, the list is empty")
		return
	}

	// Trust only records we can re-fetch as unconsumed ourselves. A
	// duplicated entry would restore its reserve more than once.
	ids := make([]uuid.UUID, len(m.Guarantees))
	seen := make(map[uuid.UUID]bool, len(m.Guarantees))
	for i, rec := range m.Guarantees {
		if seen[rec.ID] {
			g.refuse(s, messaging.CodeValidation, "guarantee listed twice in the batch")
			return
		}
		seen[rec.ID] = true
		ids[i] = rec.ID
	}
	guarantees, err := ledger.FetchAll(ctx, g.store, ledger.KindGuarantee, ids)
	if err != nil {
		g.refuse(s, messaging.CodeAllOrNothing, "some guarantees are not available")
		return
	}

	reserveIDs := make([]uuid.UUID, len(guarantees))
	for i, rec := range guarantees {
		gr, ok := rec.Body.(model.Guarantee)
		if !ok {
			g.refuse(s, messaging.CodeAllOrNothing, "malformed guarantee record")
			return
		}
		reserveIDs[i] = gr.ReserveID
	}
	reserves, err := ledger.FetchAll(ctx, g.store, ledger.KindReserve, reserveIDs)
	if err != nil {
		g.refuse(s, messaging.CodeAllOrNothing, "some reserves are not available")
		return
	}

	// Mixed mode: group restored amounts by owning account, keeping
	// first-seen order for deterministic transaction layout.
	restored := make(map[uuid.UUID]int64)
	var accountIDs []uuid.UUID
	for _, rec := range reserves {
		res, ok := rec.Body.(model.Reserve)
		if !ok {
			g.refuse(s, messaging.CodeAllOrNothing, "malformed reserve record")
			return
		}
		if _, seen := restored[res.AccountID]; !seen {
			accountIDs = append(accountIDs, res.AccountID)
		}
		restored[res.AccountID] += res.Amount
	}
	accounts, err := ledger.FetchAll(ctx, g.store, ledger.KindAccount, accountIDs)
	if err != nil {
		g.refuse(s, messaging.CodeAllOrNothing, "some accounts are not available")
		return
	}

	inputs := append(append(append([]ledger.Record{}, guarantees...), reserves...), accounts...)
	outputs := make([]ledger.Record, 0, len(accounts))
	for _, rec := range accounts {
		account, ok := rec.Body.(model.Account)
		if !ok {
			g.refuse(s, messaging.CodeAllOrNothing, "malformed account record")
			return
		}
		account.Balance += restored[rec.ID]
		outputs = append(outputs, ledger.NextVersion(rec, account))
	}

	tx := ledger.Transaction{
		Inputs:          inputs,
		Outputs:         outputs,
		RequiredSigners: []model.Party{g.party, s.Peer()},
	}
	if !g.finalize(ctx, s, tx) {
		return
	}
	g.notify(ctx, s.Peer(), notification.KindGuaranteeRevoked,
		fmt.Sprintf("%d guarantee(s) revoked across %d account(s)", len(guarantees), len(accounts)))
}

// finalize self-signs the built transaction, collects the requester's
// countersignature and commits. Reports whether the commit happened.
func (g *Guarantor) finalize(ctx context.Context, s messaging.Session, tx ledger.Transaction) bool {
	digest := tx.Digest()
	sig, err := g.signer.Sign(digest)
	if err != nil {
		g.refuse(s, messaging.CodeRejected, err.Error())
		return false
	}
	tx.Signatures = append(tx.Signatures, ledger.Signature{Signer: g.party, Over: digest, Bytes: sig})

	if err := s.Send(messaging.Proposal{Tx: tx}); err != nil {
		return false
	}
	msg, err := s.Receive(ctx)
	if err != nil {
		return false
	}
	switch m := msg.(type) {
	case messaging.Approval:
		tx.Signatures = append(tx.Signatures, m.Sig)
	case messaging.Refusal:
		g.logger.Warn("requester refused to countersign", "peer", s.Peer(), "reason", m.Reason)
		return false
	default:
		g.refuse(s, messaging.CodeValidation, fmt.Sprintf("unexpected message %T", msg))
		return false
	}

	res, err := g.store.Submit(ctx, tx)
	if err != nil {
		code := messaging.CodeRejected
		if errors.Is(err, ledger.ErrStaleReference) {
			code = messaging.CodeStaleReference
		}
		g.refuse(s, code, err.Error())
		return false
	}
	_ = s.Send(messaging.Committed{TxID: res.TxID})
	return true
}

func (g *Guarantor) refuse(s messaging.Session, code, reason string) {
	_ = s.Send(messaging.Refusal{Code: code, Reason: reason})
}

func (g *Guarantor) notify(ctx context.Context, to model.Party, kind, body string) {
	if g.notifier == nil {
		return
	}
	_ = g.notifier.Send(ctx, notification.Message{Kind: kind, Destination: string(to), Body: body})
}
