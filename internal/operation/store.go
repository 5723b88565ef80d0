// Package operation tracks provider-issued tokens for in-flight video jobs.
package operation

import (
	"context"
	"encoding/json"
	"sync"

	"server/internal/domain"
)

// Store is the single source of truth for which operations exist and their
// last known provider state. Save and Update are full overwrites keyed by the
// operation name; Get must distinguish "not found" from every valid state,
// because a missing entry is an expected condition after a process restart.
type Store interface {
	Save(ctx context.Context, token domain.OperationToken) error
	Get(ctx context.Context, name string) (domain.OperationToken, error)
	Update(ctx context.Context, token domain.OperationToken) error
}

// ErrNotFound is what Get surfaces for unknown or structurally unusable
// entries. Callers should tell the user the job may have expired rather
// than keep polling.
func errNotFound(name string) error {
	return domain.E(domain.KindNotFound, "operation_not_found", "operation %q has no known state", name)
}

// MemoryStore keeps tokens in a process-wide map. It offers read-after-write
// consistency within one process and nothing across restarts; entries are
// never evicted. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.OperationToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]domain.OperationToken)}
}

// Save inserts or overwrites by name. Tokens without a usable name are
// silently ignored.
func (s *MemoryStore) Save(_ context.Context, token domain.OperationToken) error {
	if !token.Valid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy the raw payload so callers cannot mutate stored state.
	token.Raw = append(json.RawMessage(nil), token.Raw...)
	s.tokens[token.Name] = token
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (domain.OperationToken, error) {
	s.mu.RLock()
	token, ok := s.tokens[name]
	s.mu.RUnlock()
	if !ok {
		return domain.OperationToken{}, errNotFound(name)
	}
	if !token.Valid() {
		return domain.OperationToken{}, errNotFound(name)
	}
	token.Raw = append(json.RawMessage(nil), token.Raw...)
	return token, nil
}

// Update has save semantics: always a full overwrite, never a merge.
func (s *MemoryStore) Update(ctx context.Context, token domain.OperationToken) error {
	return s.Save(ctx, token)
}

var _ Store = (*MemoryStore)(nil)
