package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/signing"
)

type entry struct {
	rec      Record
	consumed bool
}

type memoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]entry
	keys    *signing.Keyring
}

// NewInMemory creates a concurrency-safe in-memory notarizing store, used
// by unit tests and dev mode. Consumption is serialized under one mutex:
// two attempts to consume the same record version are mutually exclusive
// and the loser gets ErrRecordConsumed.
func NewInMemory(keys *signing.Keyring) Store {
	return &memoryStore{records: make(map[uuid.UUID]entry), keys: keys}
}

func (s *memoryStore) FetchUnconsumed(_ context.Context, kind Kind, ids []uuid.UUID) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, id := range ids {
		e, ok := s.records[id]
		if ok && !e.consumed && e.rec.Kind == kind {
			out = append(out, e.rec)
		}
	}
	return out, nil
}

func (s *memoryStore) Submit(_ context.Context, tx Transaction) (TxResult, error) {
	if len(tx.Outputs) == 0 {
		return TxResult{}, fmt.Errorf("transaction produces nothing")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := verifyTransaction(tx, s.keys); err != nil {
		return TxResult{}, err
	}

	consuming := make(map[uuid.UUID]bool, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if consuming[in.ID] {
			return TxResult{}, fmt.Errorf("%w: input %s listed twice", ErrRecordConsumed, in.ID)
		}
		e, ok := s.records[in.ID]
		if !ok {
			return TxResult{}, fmt.Errorf("%w: input %s", ErrStaleReference, in.ID)
		}
		if e.consumed || e.rec.Version != in.Version {
			return TxResult{}, fmt.Errorf("%w: input %s", ErrRecordConsumed, in.ID)
		}
		consuming[in.ID] = true
	}
	for _, out := range tx.Outputs {
		if e, ok := s.records[out.ID]; ok && !e.consumed && !consuming[out.ID] {
			return TxResult{}, fmt.Errorf("%w: output %s collides with a live record", ErrRecordConsumed, out.ID)
		}
	}

	// Checks passed; the whole bundle commits.
	for _, in := range tx.Inputs {
		e := s.records[in.ID]
		e.consumed = true
		s.records[in.ID] = e
	}
	for _, out := range tx.Outputs {
		s.records[out.ID] = entry{rec: out}
	}

	return TxResult{TxID: uuid.New()}, nil
}
