package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Save replaces the stored snapshot in a single transaction.
func (s *indexStore) Save(ctx context.Context, snapshot domain.IndexSnapshot) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, metric, dimension, model, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			metric = excluded.metric,
			dimension = excluded.dimension,
			model = excluded.model,
			updated_at = excluded.updated_at
	`, string(snapshot.Metric), snapshot.Dimension, snapshot.Model)
	if err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	if err := insertEntries(ctx, tx, 0, snapshot.Entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Append adds entries after the stored ones.
func (s *indexStore) Append(ctx context.Context, entries []domain.IndexEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var dimension int
	if err := tx.QueryRowContext(ctx, "SELECT dimension FROM index_meta WHERE id = 1").Scan(&dimension); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("reading index metadata: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(ordinal) + 1, 0) FROM index_entries").Scan(&next); err != nil {
		return fmt.Errorf("reading last ordinal: %w", err)
	}

	for i, e := range entries {
		if len(e.Embedding) != dimension {
			return fmt.Errorf("%w: entry %d (%s) has %d dimensions, stored index has %d",
				domain.ErrDimensionMismatch, i, e.Chunk.ID, len(e.Embedding), dimension)
		}
	}

	if err := insertEntries(ctx, tx, next, entries); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE index_meta SET updated_at = CURRENT_TIMESTAMP WHERE id = 1"); err != nil {
		return fmt.Errorf("updating index metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load returns the stored snapshot with entries in ordinal order.
func (s *indexStore) Load(ctx context.Context) (domain.IndexSnapshot, error) {
	var snap domain.IndexSnapshot
	var metric string

	row := s.store.db.QueryRowContext(ctx, "SELECT metric, dimension, model FROM index_meta WHERE id = 1")
	if err := row.Scan(&metric, &snap.Dimension, &snap.Model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IndexSnapshot{}, domain.ErrNotFound
		}
		return domain.IndexSnapshot{}, fmt.Errorf("reading index metadata: %w", err)
	}
	snap.Metric = domain.Metric(metric)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, content, char_offset, metadata, embedding
		FROM index_entries ORDER BY ordinal
	`)
	if err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return domain.IndexSnapshot{}, err
		}
		if len(entry.Embedding) != snap.Dimension {
			return domain.IndexSnapshot{}, fmt.Errorf("%w: stored chunk %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, entry.Chunk.ID, len(entry.Embedding), snap.Dimension)
		}
		snap.Entries = append(snap.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("iterating entries: %w", err)
	}

	return snap, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *indexStore) Close() error {
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, first int, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (ordinal, chunk_id, document_id, content, char_offset, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var metadata sql.NullString
		if len(e.Chunk.Metadata) > 0 {
			data, err := json.Marshal(e.Chunk.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata: %w", err)
			}
			metadata = sql.NullString{String: string(data), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, first+i, e.Chunk.ID, e.Chunk.DocumentID, e.Chunk.Text,
			e.Chunk.Offset, metadata, float32SliceToBytes(e.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", e.Chunk.ID, err)
		}
	}
	return nil
}

func scanEntry(rows *sql.Rows) (domain.IndexEntry, error) {
	var e domain.IndexEntry
	var metadata sql.NullString
	var blob []byte

	if err := rows.Scan(&e.Chunk.ID, &e.Chunk.DocumentID, &e.Chunk.Text, &e.Chunk.Offset, &metadata, &blob); err != nil {
		return domain.IndexEntry{}, fmt.Errorf("scanning entry: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &e.Chunk.Metadata); err != nil {
			return domain.IndexEntry{}, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}
	e.Embedding = bytesToFloat32Slice(blob)
	return e, nil
}
