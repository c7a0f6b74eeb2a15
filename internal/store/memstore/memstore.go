// Package memstore is the in-memory message ledger. It satisfies the
// relay's contract on its own; the sqlstore variant adds persistence.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pairlink/pairlink/internal/models"
)

type MemStore struct {
	mu        sync.Mutex
	envelopes []models.Envelope
	index     map[string]int // envelope id -> position of first occurrence
}

func New() *MemStore {
	return &MemStore{index: make(map[string]int)}
}

func (s *MemStore) Append(env models.Envelope) (models.Envelope, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Ts == 0 {
		env.Ts = time.Now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[env.ID]; !exists {
		s.index[env.ID] = len(s.envelopes)
	}
	s.envelopes = append(s.envelopes, env)
	return env, nil
}

func (s *MemStore) Since(since int64) ([]models.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Envelope{}
	for _, env := range s.envelopes {
		if env.Ts > since {
			out = append(out, copyEnvelope(env))
		}
	}
	return out, nil
}

func (s *MemStore) MarkRead(id, reader string) (models.Envelope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return models.Envelope{}, false, nil
	}
	env := &s.envelopes[pos]
	for _, r := range env.Meta.ReadBy {
		if r == reader {
			return copyEnvelope(*env), true, nil
		}
	}
	env.Meta.ReadBy = append(env.Meta.ReadBy, reader)
	return copyEnvelope(*env), true, nil
}

// copyEnvelope detaches the ReadBy slice so callers never alias ledger state.
func copyEnvelope(env models.Envelope) models.Envelope {
	if env.Meta.ReadBy != nil {
		env.Meta.ReadBy = append([]string(nil), env.Meta.ReadBy...)
	}
	return env
}
