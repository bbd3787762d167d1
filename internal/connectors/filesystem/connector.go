// Package filesystem reads documents from local directories and files.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Type is the connector type identifier.
const Type = "filesystem"

// DefaultMaxFileSize bounds how much of a single file is read.
const DefaultMaxFileSize int64 = 20 << 20

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector walks a set of root paths and watches them for changes.
type Connector struct {
	roots       []string
	manifest    map[string]ManifestEntry
	maxFileSize int64
	supported   func(mimeType string) bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithManifest assigns document IDs and metadata from a manifest.
// Manifest paths are added to the roots.
func WithManifest(m *Manifest) Option {
	return func(c *Connector) {
		if m == nil {
			return
		}
		for _, e := range m.Documents {
			key := cleanPath(e.Path)
			c.manifest[key] = e
			c.roots = append(c.roots, e.Path)
		}
	}
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxFileSize = n
		}
	}
}

// WithMIMEFilter restricts the connector to MIME types accepted by fn,
// typically the normaliser registry's Supports.
func WithMIMEFilter(fn func(mimeType string) bool) Option {
	return func(c *Connector) {
		c.supported = fn
	}
}

// New creates a filesystem connector over the given roots.
func New(roots []string, opts ...Option) *Connector {
	c := &Connector{
		roots:       append([]string(nil), roots...),
		manifest:    make(map[string]ManifestEntry),
		maxFileSize: DefaultMaxFileSize,
		supported:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.roots = dedupe(c.roots)
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// Roots returns the paths this connector reads.
func (c *Connector) Roots() []string {
	return append([]string(nil), c.roots...)
}

// Validate checks that every root exists.
func (c *Connector) Validate(_ context.Context) error {
	if len(c.roots) == 0 {
		return fmt.Errorf("%w: no paths to index", domain.ErrInvalidInput)
	}
	for _, root := range c.roots {
		if _, err := os.Stat(root); err != nil {
			return rootError(root, err)
		}
	}
	return nil
}

// FullSync emits every supported file under the roots.
// Both channels are closed when the walk finishes. A missing root is
// reported on the error channel and the walk moves on to the next one.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, 16)
	errs := make(chan error, len(c.roots)+1)

	go func() {
		defer close(docs)
		defer close(errs)

		seen := make(map[string]struct{})
		for _, root := range c.roots {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
			if err := c.walk(ctx, root, seen, docs); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					errs <- err
					return
				}
				errs <- err
			}
		}
	}()

	return docs, errs
}

func (c *Connector) walk(ctx context.Context, root string, seen map[string]struct{}, out chan<- domain.RawDocument) error {
	if _, err := os.Stat(root); err != nil {
		return rootError(root, err)
	}

	logger.Debug("Walking %s", root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		key := cleanPath(path)
		if _, ok := seen[key]; ok {
			return nil
		}
		if !c.accepts(path) {
			return nil
		}
		seen[key] = struct{}{}

		doc, err := c.readDocument(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}

		select {
		case out <- *doc:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Watch emits a change for every supported file created, written, removed
// or renamed under the roots. The channel closes when ctx is done.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	for _, root := range c.roots {
		if err := c.addWatch(watcher, root); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange, 16)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := c.addWatch(watcher, event.Name); err != nil {
						logger.Warn("Cannot watch %s: %v", event.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// addWatch registers root and its visible subdirectories. A file root is
// watched through its parent directory.
func (c *Connector) addWatch(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return rootError(root, err)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		logger.Debug("Watching %s", path)
		return watcher.Add(path)
	})
}

// handleFsEvent converts an fsnotify event into a document change.
// It returns nil for events that do not affect the corpus.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	path := event.Name
	rel, ok := c.relative(path)
	if !ok || isHidden(rel) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: c.describe(path),
		}
	default:
		return nil
	}

	if isDir(path) || !c.accepts(path) {
		return nil
	}
	doc, err := c.readDocument(path)
	if err != nil {
		logger.Debug("Ignoring %s event for %s: %v", event.Op, path, err)
		return nil
	}
	return &domain.RawDocumentChange{Type: changeType, Document: *doc}
}

// Close stops any active watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// readDocument loads path as a raw document.
func (c *Connector) readDocument(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrInvalidInput, info.Size(), c.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := c.describe(path)
	doc.Content = content
	return &doc, nil
}

// describe builds the identity and metadata for path without reading it.
func (c *Connector) describe(path string) domain.RawDocument {
	key := cleanPath(path)
	doc := domain.RawDocument{
		ID:       key,
		URI:      key,
		MIMEType: detectMIMEType(path),
		Metadata: map[string]string{
			domain.MetadataSource: key,
			"path":                key,
		},
	}
	if entry, ok := c.manifest[key]; ok {
		if entry.ID != "" {
			doc.ID = entry.ID
		}
		for k, v := range entry.Metadata {
			doc.Metadata[k] = v
		}
	}
	return doc
}

func (c *Connector) accepts(path string) bool {
	return c.supported(detectMIMEType(path))
}

// relative returns path relative to the root containing it.
// A file root maps to ".".
func (c *Connector) relative(path string) (string, bool) {
	key := cleanPath(path)
	for _, root := range c.roots {
		r := cleanPath(root)
		if key == r {
			return ".", true
		}
		if rel, ok := strings.CutPrefix(key, strings.TrimSuffix(r, "/")+"/"); ok && isDir(root) {
			return rel, true
		}
	}
	return "", false
}

var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".rst":      "text/x-rst",
	".csv":      "text/csv",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".html":     "text/html",
	".htm":      "text/html",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eml":      "message/rfc822",
	".json":     "application/json",
}

// detectMIMEType guesses a MIME type from the file extension.
// Files without an extension are treated as plain text.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := fallbackMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.Index(t, ";"); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return "application/octet-stream"
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func cleanPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func rootError(root string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("path %s does not exist: %w", root, domain.ErrNotFound)
	}
	return fmt.Errorf("stat %s: %w", root, err)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		key := cleanPath(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
