package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

func rawDoc(uri, content string) domain.RawDocument {
	return domain.RawDocument{URI: uri, MIMEType: "text/plain", Content: []byte(content)}
}

func newTestOrchestrator(indexer *mockIndexer, connectors ...driven.Connector) *SyncOrchestrator {
	return NewSyncOrchestrator(connectors, &mockRegistry{}, indexer, WithDebounce(20*time.Millisecond))
}

func TestNewSyncOrchestrator(t *testing.T) {
	o := NewSyncOrchestrator(nil, &mockRegistry{}, newMockIndexer())

	require.NotNil(t, o)
	assert.Equal(t, DefaultDebounce, o.debounce)
	assert.False(t, o.Status().Running)
}

func TestSyncOrchestrator_Sync_NoConnectors(t *testing.T) {
	o := newTestOrchestrator(newMockIndexer())

	_, err := o.Sync(context.Background(), false)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSyncOrchestrator_Sync_ValidationFails(t *testing.T) {
	conn := &mockConnector{validateErr: domain.ErrNotFound}
	o := newTestOrchestrator(newMockIndexer(), conn)

	_, err := o.Sync(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "validate mock connector")
}

func TestSyncOrchestrator_Sync_BuildsEmptyIndex(t *testing.T) {
	indexer := newMockIndexer()
	conn := &mockConnector{docs: []domain.RawDocument{
		rawDoc("a.txt", "alpha"),
		rawDoc("b.txt", "beta"),
	}}
	o := newTestOrchestrator(indexer, conn)

	report, err := o.Sync(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, report.Rebuilt)
	assert.Equal(t, 2, report.Read)
	assert.Equal(t, 2, report.Documents)
	builds, adds := indexer.counts()
	assert.Equal(t, 1, builds)
	assert.Equal(t, 0, adds)
	assert.Equal(t, "alpha", indexer.built[0][0].Text)

	status := o.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.DocumentsProcessed)
	assert.False(t, status.LastSync.IsZero())
}

func TestSyncOrchestrator_Sync_AddsOnlyNewDocuments(t *testing.T) {
	indexer := newMockIndexer()
	indexer.documents["a.txt"] = true
	indexer.entries = 1

	conn := &mockConnector{docs: []domain.RawDocument{
		rawDoc("a.txt", "alpha"),
		rawDoc("b.txt", "beta"),
	}}
	o := newTestOrchestrator(indexer, conn)

	report, err := o.Sync(context.Background(), false)

	require.NoError(t, err)
	assert.False(t, report.Rebuilt)
	assert.Equal(t, 1, report.Existing)
	require.Len(t, indexer.added, 1)
	require.Len(t, indexer.added[0], 1)
	assert.Equal(t, "b.txt", indexer.added[0][0].ID)
}

func TestSyncOrchestrator_Sync_RebuildReplacesIndex(t *testing.T) {
	indexer := newMockIndexer()
	indexer.documents["a.txt"] = true
	indexer.entries = 1

	conn := &mockConnector{docs: []domain.RawDocument{rawDoc("a.txt", "alpha v2")}}
	o := newTestOrchestrator(indexer, conn)

	report, err := o.Sync(context.Background(), true)

	require.NoError(t, err)
	assert.True(t, report.Rebuilt)
	require.Len(t, indexer.built, 1)
	assert.Equal(t, "alpha v2", indexer.built[0][0].Text)
}

func TestSyncOrchestrator_Sync_CountsNormaliseFailures(t *testing.T) {
	indexer := newMockIndexer()
	conn := &mockConnector{docs: []domain.RawDocument{
		rawDoc("good.txt", "ok"),
		{URI: "image.bin", MIMEType: "application/octet-stream", Content: []byte{1}},
		rawDoc("broken.txt", "x"),
	}}
	o := NewSyncOrchestrator([]driven.Connector{conn},
		&mockRegistry{failURIs: map[string]bool{"broken.txt": true}}, indexer)

	report, err := o.Sync(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Read)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Documents)
	assert.Equal(t, 2, o.Status().ErrorCount)
}

func TestSyncOrchestrator_Sync_ConnectorError(t *testing.T) {
	indexer := newMockIndexer()
	conn := &mockConnector{syncErr: domain.ErrNotFound}
	o := newTestOrchestrator(indexer, conn)

	_, err := o.Sync(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	builds, adds := indexer.counts()
	assert.Zero(t, builds+adds)

	status := o.Status()
	assert.Equal(t, 1, status.ErrorCount)
	assert.NotEmpty(t, status.LastError)
}

func TestSyncOrchestrator_Sync_MergesConnectors(t *testing.T) {
	indexer := newMockIndexer()
	first := &mockConnector{docs: []domain.RawDocument{rawDoc("a.txt", "a")}}
	second := &mockConnector{docs: []domain.RawDocument{rawDoc("b.txt", "b"), rawDoc("c.txt", "c")}}
	o := newTestOrchestrator(indexer, first, second)

	report, err := o.Sync(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Read)
	require.Len(t, indexer.built, 1)
	assert.Len(t, indexer.built[0], 3)
}

func TestSyncOrchestrator_Sync_IndexerError(t *testing.T) {
	indexer := newMockIndexer()
	indexer.buildErr = domain.ErrEmbeddingUnavailable
	conn := &mockConnector{docs: []domain.RawDocument{rawDoc("a.txt", "a")}}
	o := newTestOrchestrator(indexer, conn)

	_, err := o.Sync(context.Background(), false)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSyncOrchestrator_Sync_ContextCancellation(t *testing.T) {
	conn := &mockConnector{docs: []domain.RawDocument{rawDoc("a.txt", "a")}}
	o := newTestOrchestrator(newMockIndexer(), conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Sync(ctx, false)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncOrchestrator_Watch_AddsCreatedDocuments(t *testing.T) {
	indexer := newMockIndexer()
	indexer.documents["old.txt"] = true
	indexer.entries = 1

	conn := &mockConnector{changes: make(chan domain.RawDocumentChange)}
	o := NewSyncOrchestrator([]driven.Connector{conn}, &mockRegistry{}, indexer,
		WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Watch(ctx) }()

	conn.changes <- domain.RawDocumentChange{Type: domain.ChangeCreated, Document: rawDoc("new.txt", "fresh")}
	conn.changes <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: rawDoc("new.txt", "fresher")}

	require.Eventually(t, func() bool {
		_, adds := indexer.counts()
		return adds == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	builds, _ := indexer.counts()
	assert.Zero(t, builds)
	require.Len(t, indexer.added[0], 1)
	assert.Equal(t, "fresher", indexer.added[0][0].Text)
}

func TestSyncOrchestrator_Watch_RebuildsOnUpdate(t *testing.T) {
	indexer := newMockIndexer()
	indexer.documents["a.txt"] = true
	indexer.entries = 1

	conn := &mockConnector{
		docs:    []domain.RawDocument{rawDoc("a.txt", "changed")},
		changes: make(chan domain.RawDocumentChange),
	}
	o := newTestOrchestrator(indexer, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = o.Watch(ctx) }()

	conn.changes <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: rawDoc("a.txt", "changed")}

	require.Eventually(t, func() bool {
		builds, _ := indexer.counts()
		return builds == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSyncOrchestrator_Watch_RebuildsOnDelete(t *testing.T) {
	indexer := newMockIndexer()
	indexer.documents["a.txt"] = true
	indexer.documents["b.txt"] = true
	indexer.entries = 2

	conn := &mockConnector{
		docs:    []domain.RawDocument{rawDoc("b.txt", "b")},
		changes: make(chan domain.RawDocumentChange),
	}
	o := newTestOrchestrator(indexer, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = o.Watch(ctx) }()

	conn.changes <- domain.RawDocumentChange{Type: domain.ChangeDeleted, Document: domain.RawDocument{URI: "a.txt"}}

	require.Eventually(t, func() bool {
		return !indexer.Contains("a.txt") && indexer.Contains("b.txt")
	}, time.Second, 10*time.Millisecond)
}

func TestSyncOrchestrator_Watch_FallsBackToRebuild(t *testing.T) {
	indexer := newMockIndexer()
	indexer.entries = 1
	indexer.addErr = domain.ErrAlreadyExists

	conn := &mockConnector{
		docs:    []domain.RawDocument{rawDoc("new.txt", "n")},
		changes: make(chan domain.RawDocumentChange),
	}
	o := newTestOrchestrator(indexer, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = o.Watch(ctx) }()

	conn.changes <- domain.RawDocumentChange{Type: domain.ChangeCreated, Document: rawDoc("new.txt", "n")}

	require.Eventually(t, func() bool {
		builds, adds := indexer.counts()
		return adds == 1 && builds == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSyncOrchestrator_Watch_ConnectorError(t *testing.T) {
	conn := &mockConnector{watchErr: domain.ErrNotFound}
	o := newTestOrchestrator(newMockIndexer(), conn)

	err := o.Watch(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMergeChange(t *testing.T) {
	created := domain.RawDocumentChange{Type: domain.ChangeCreated, Document: rawDoc("a.txt", "1")}
	updated := domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: rawDoc("a.txt", "2")}
	deleted := domain.RawDocumentChange{Type: domain.ChangeDeleted, Document: domain.RawDocument{URI: "a.txt"}}

	t.Run("first change is kept", func(t *testing.T) {
		assert.Equal(t, updated, mergeChange(domain.RawDocumentChange{}, updated))
	})

	t.Run("created then updated stays created", func(t *testing.T) {
		got := mergeChange(created, updated)
		assert.Equal(t, domain.ChangeCreated, got.Type)
		assert.Equal(t, []byte("2"), got.Document.Content)
	})

	t.Run("created then deleted is deleted", func(t *testing.T) {
		assert.Equal(t, domain.ChangeDeleted, mergeChange(created, deleted).Type)
	})
}
