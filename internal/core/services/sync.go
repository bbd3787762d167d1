package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates connectors, normalisation and indexing.
type SyncOrchestrator struct {
	connectors []driven.Connector
	registry   driven.NormaliserRegistry
	indexer    driving.Indexer
	debounce   time.Duration

	// run serialises sync passes.
	run sync.Mutex

	mu     sync.RWMutex
	status driving.SyncStatus
}

// SyncOption configures a SyncOrchestrator.
type SyncOption func(*SyncOrchestrator)

// WithDebounce sets how long Watch batches changes before re-indexing.
func WithDebounce(d time.Duration) SyncOption {
	return func(o *SyncOrchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	connectors []driven.Connector,
	registry driven.NormaliserRegistry,
	indexer driving.Indexer,
	opts ...SyncOption,
) *SyncOrchestrator {
	o := &SyncOrchestrator{
		connectors: connectors,
		registry:   registry,
		indexer:    indexer,
		debounce:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sync reads the full corpus from every connector and indexes it.
func (o *SyncOrchestrator) Sync(ctx context.Context, rebuild bool) (driving.SyncReport, error) {
	o.run.Lock()
	defer o.run.Unlock()

	o.begin()
	report, err := o.sync(ctx, rebuild)
	o.finish(report, err)
	return report, err
}

func (o *SyncOrchestrator) sync(ctx context.Context, rebuild bool) (driving.SyncReport, error) {
	var report driving.SyncReport

	if len(o.connectors) == 0 {
		return report, fmt.Errorf("sync: %w: no connectors configured", domain.ErrInvalidConfig)
	}
	for _, c := range o.connectors {
		if err := c.Validate(ctx); err != nil {
			return report, fmt.Errorf("validate %s connector: %w", c.Type(), err)
		}
	}

	logger.Section("Sync")
	var docs []domain.Document
	for _, c := range o.connectors {
		read, failed, err := o.readAll(ctx, c, &docs)
		report.Read += read
		report.Failed += failed
		if err != nil {
			return report, err
		}
	}
	logger.Debug("Read %d documents, %d normalised, %d failed", report.Read, len(docs), report.Failed)

	if rebuild || o.indexer.Stats().Entries == 0 {
		ir, err := o.indexer.Build(ctx, docs)
		report.IndexReport = ir
		report.Rebuilt = true
		return report, err
	}

	fresh := docs[:0]
	for _, d := range docs {
		if o.indexer.Contains(d.ID) {
			report.Existing++
			continue
		}
		fresh = append(fresh, d)
	}
	if report.Existing > 0 {
		logger.Info("%d documents already indexed; rebuild to pick up their changes", report.Existing)
	}

	ir, err := o.indexer.Add(ctx, fresh)
	report.IndexReport = ir
	return report, err
}

// readAll drains a connector's full sync into docs.
// Normalisation failures are counted and logged; connector errors abort.
func (o *SyncOrchestrator) readAll(ctx context.Context, c driven.Connector, docs *[]domain.Document) (read, failed int, err error) {
	docsCh, errsCh := c.FullSync(ctx)

	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return read, failed, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return read, failed, fmt.Errorf("%s connector: %w", c.Type(), err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			read++
			doc, err := o.normalise(ctx, &raw)
			if err != nil {
				failed++
				continue
			}
			*docs = append(*docs, *doc)
		}
	}
	return read, failed, ctx.Err()
}

func (o *SyncOrchestrator) normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	doc, err := o.registry.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("Skipping %s: %v", raw.URI, err)
		} else {
			logger.Warn("Failed to normalise %s: %v", raw.URI, err)
		}
		return nil, err
	}
	return doc, nil
}

// Watch listens to every connector and re-indexes after changes settle.
//
// A batch made only of new documents is appended to the index. Any update
// or deletion, or a new document whose ID is already indexed, triggers a
// full rebuild. Failures are logged and recorded in the status; watching
// continues until ctx is done.
func (o *SyncOrchestrator) Watch(ctx context.Context) error {
	if len(o.connectors) == 0 {
		return fmt.Errorf("watch: %w: no connectors configured", domain.ErrInvalidConfig)
	}

	merged := make(chan domain.RawDocumentChange)
	var wg sync.WaitGroup
	for _, c := range o.connectors {
		changes, err := c.Watch(ctx)
		if err != nil {
			return fmt.Errorf("watch %s connector: %w", c.Type(), err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for change := range changes {
				select {
				case merged <- change:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	logger.Info("Watching %d connectors for changes", len(o.connectors))

	pending := make(map[string]domain.RawDocumentChange)
	timer := time.NewTimer(o.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-merged:
			if !ok {
				if len(pending) > 0 {
					o.apply(ctx, pending)
				}
				return nil
			}
			id := change.Document.DocumentID()
			logger.Debug("Change: %s %s", change.Type, id)
			pending[id] = mergeChange(pending[id], change)
			timer.Reset(o.debounce)

		case <-timer.C:
			o.apply(ctx, pending)
			pending = make(map[string]domain.RawDocumentChange)
		}
	}
}

// mergeChange folds a later change for the same document into an earlier one.
// Created followed by writes stays Created with the latest content.
func mergeChange(prev, next domain.RawDocumentChange) domain.RawDocumentChange {
	if prev.Document.URI == "" {
		return next
	}
	if prev.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		next.Type = domain.ChangeCreated
	}
	return next
}

// apply re-indexes for a settled batch of changes.
func (o *SyncOrchestrator) apply(ctx context.Context, pending map[string]domain.RawDocumentChange) {
	if len(pending) == 0 {
		return
	}

	created := make([]domain.RawDocumentChange, 0, len(pending))
	for id, change := range pending {
		if change.Type != domain.ChangeCreated || o.indexer.Contains(id) {
			created = nil
			break
		}
		created = append(created, change)
	}

	if created != nil {
		report, err := o.addCreated(ctx, created)
		if err == nil {
			logger.Info("Indexed %d new documents (%d entries)", report.Documents, report.Entries)
			return
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			logger.Warn("Incremental add failed: %v", err)
			return
		}
		logger.Debug("Add hit existing chunks, rebuilding")
	}

	report, err := o.Sync(ctx, true)
	if err != nil {
		logger.Warn("Re-index failed: %v", err)
		return
	}
	logger.Info("Re-indexed %d documents (%d entries)", report.Documents, report.Entries)
}

func (o *SyncOrchestrator) addCreated(ctx context.Context, changes []domain.RawDocumentChange) (driving.IndexReport, error) {
	o.run.Lock()
	defer o.run.Unlock()

	o.begin()
	var report driving.SyncReport
	docs := make([]domain.Document, 0, len(changes))
	for i := range changes {
		report.Read++
		doc, err := o.normalise(ctx, &changes[i].Document)
		if err != nil {
			report.Failed++
			continue
		}
		docs = append(docs, *doc)
	}

	ir, err := o.indexer.Add(ctx, docs)
	report.IndexReport = ir
	o.finish(report, err)
	return ir, err
}

// Status returns a copy of the current sync state.
func (o *SyncOrchestrator) Status() driving.SyncStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *SyncOrchestrator) begin() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = true
}

func (o *SyncOrchestrator) finish(report driving.SyncReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = false
	o.status.ErrorCount += report.Failed
	if err != nil {
		o.status.ErrorCount++
		o.status.LastError = err.Error()
		return
	}
	o.status.DocumentsProcessed += report.Documents
	o.status.LastSync = time.Now()
	o.status.LastError = ""
}
