package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/signing"
)

// PostgresStore persists versioned records in PostgreSQL. Row locks on the
// consumed inputs serialize competing transactions; the database
// transaction gives the all-or-nothing commit.
//
// Expected schema:
//
//	CREATE TABLE records (
//	    id        uuid        NOT NULL,
//	    version   integer     NOT NULL,
//	    kind      text        NOT NULL,
//	    body      jsonb       NOT NULL,
//	    consumed  boolean     NOT NULL DEFAULT false,
//	    PRIMARY KEY (id, version)
//	);
//	CREATE TABLE record_transactions (
//	    id           uuid        PRIMARY KEY,
//	    submitted_at timestamptz NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db   *pgxpool.Pool
	keys *signing.Keyring
}

// NewPostgresStore constructs a Postgres-backed record store.
func NewPostgresStore(db *pgxpool.Pool, keys *signing.Keyring) *PostgresStore {
	return &PostgresStore{db: db, keys: keys}
}

// FetchUnconsumed returns the live version of each requested record in
// request order, skipping missing or consumed ones.
func (s *PostgresStore) FetchUnconsumed(ctx context.Context, kind Kind, ids []uuid.UUID) ([]Record, error) {
	const query = `SELECT version, body FROM records
        WHERE id = $1 AND kind = $2 AND consumed = false`
	var out []Record
	for _, id := range ids {
		var version int
		var raw []byte
		err := s.db.QueryRow(ctx, query, id, string(kind)).Scan(&version, &raw)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch record %s: %w", id, err)
		}
		body, err := decodeBody(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		out = append(out, Record{ID: id, Version: version, Kind: kind, Body: body})
	}
	return out, nil
}

// Submit verifies signatures, then consumes inputs and inserts outputs in
// one database transaction.
func (s *PostgresStore) Submit(ctx context.Context, tx Transaction) (TxResult, error) {
	if len(tx.Outputs) == 0 {
		return TxResult{}, fmt.Errorf("transaction produces nothing")
	}
	if err := verifyTransaction(tx, s.keys); err != nil {
		return TxResult{}, err
	}

	dbTx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TxResult{}, err
	}
	defer dbTx.Rollback(ctx) // nolint:errcheck

	const lockQuery = `SELECT consumed FROM records
        WHERE id = $1 AND version = $2 FOR UPDATE`
	consuming := make(map[uuid.UUID]bool, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if consuming[in.ID] {
			return TxResult{}, fmt.Errorf("%w: input %s listed twice", ErrRecordConsumed, in.ID)
		}
		consuming[in.ID] = true
		var consumed bool
		err := dbTx.QueryRow(ctx, lockQuery, in.ID, in.Version).Scan(&consumed)
		if errors.Is(err, pgx.ErrNoRows) {
			return TxResult{}, fmt.Errorf("%w: input %s", ErrStaleReference, in.ID)
		}
		if err != nil {
			return TxResult{}, err
		}
		if consumed {
			return TxResult{}, fmt.Errorf("%w: input %s", ErrRecordConsumed, in.ID)
		}
	}

	for _, in := range tx.Inputs {
		if _, err := dbTx.Exec(ctx, `UPDATE records SET consumed = true
            WHERE id = $1 AND version = $2`, in.ID, in.Version); err != nil {
			return TxResult{}, err
		}
	}
	for _, out := range tx.Outputs {
		raw, err := json.Marshal(out.Body)
		if err != nil {
			return TxResult{}, fmt.Errorf("encode record %s: %w", out.ID, err)
		}
		if _, err := dbTx.Exec(ctx, `INSERT INTO records (id, version, kind, body)
            VALUES ($1, $2, $3, $4)`, out.ID, out.Version, string(out.Kind), raw); err != nil {
			return TxResult{}, err
		}
	}

	txID := uuid.New()
	if _, err := dbTx.Exec(ctx, `INSERT INTO record_transactions (id) VALUES ($1)`, txID); err != nil {
		return TxResult{}, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return TxResult{}, err
	}
	return TxResult{TxID: txID}, nil
}

func decodeBody(kind Kind, raw []byte) (any, error) {
	switch kind {
	case KindAccount:
		var b model.Account
		err := json.Unmarshal(raw, &b)
		return b, err
	case KindReserve:
		var b model.Reserve
		err := json.Unmarshal(raw, &b)
		return b, err
	case KindGuarantee:
		var b model.Guarantee
		err := json.Unmarshal(raw, &b)
		return b, err
	case KindCommitment:
		var b model.CommitmentRecord
		err := json.Unmarshal(raw, &b)
		return b, err
	case KindObligation:
		var b model.Obligation
		err := json.Unmarshal(raw, &b)
		return b, err
	case KindAgreement:
		var b model.Agreement
		err := json.Unmarshal(raw, &b)
		return b, err
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}
