package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps the saved index snapshot in memory.
type IndexStore struct {
	mu       sync.RWMutex
	snapshot *domain.IndexSnapshot
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Save replaces the stored snapshot.
func (s *IndexStore) Save(ctx context.Context, snapshot domain.IndexSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot
	snap.Entries = copyEntries(snapshot.Entries)
	s.snapshot = &snap
	return nil
}

// Append adds entries after the stored ones.
func (s *IndexStore) Append(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return domain.ErrNotFound
	}
	s.snapshot.Entries = append(s.snapshot.Entries, copyEntries(entries)...)
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *IndexStore) Load(ctx context.Context) (domain.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return domain.IndexSnapshot{}, domain.ErrNotFound
	}
	snap := *s.snapshot
	snap.Entries = copyEntries(s.snapshot.Entries)
	return snap, nil
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}

func copyEntries(entries []domain.IndexEntry) []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		emb := make([]float32, len(e.Embedding))
		copy(emb, e.Embedding)
		chunk := e.Chunk
		chunk.Metadata = domain.CopyMetadata(e.Chunk.Metadata)
		out[i] = domain.IndexEntry{Chunk: chunk, Embedding: emb}
	}
	return out
}
