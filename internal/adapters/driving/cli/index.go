package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// progressInterval is how often index progress is polled.
var progressInterval = 500 * time.Millisecond

var (
	indexManifest string
	indexRebuild  bool
	indexWatch    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index documents from local files",
	Long: `Reads documents from files and directories, splits them into chunks,
embeds the chunks and stores them in the vector index.

Documents already in the index are skipped unless --rebuild is given, which
replaces the index with the documents read now. A YAML manifest can assign
document IDs and metadata:

  metadata:
    team: docs
  documents:
    - id: intro
      path: guides/intro.md
      metadata:
        lang: en

With --watch, ragcore keeps running and re-indexes files as they change.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexManifest, "manifest", "", "YAML manifest of documents to index")
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "replace the index instead of adding to it")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "keep watching the paths for changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && indexManifest == "" {
		return fmt.Errorf("%w: give at least one path or --manifest", domain.ErrInvalidInput)
	}

	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	if p.NewSync == nil {
		return fmt.Errorf("indexing not configured")
	}
	orch, err := p.NewSync(args, indexManifest)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if indexRebuild {
		cmd.Println("Rebuilding index...")
	} else {
		cmd.Println("Indexing...")
	}

	report, err := indexWithProgress(ctx, cmd, orch, indexRebuild)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printSyncReport(cmd, report)

	if !indexWatch {
		return nil
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	if err := orch.Watch(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// indexWithProgress runs a sync pass while displaying progress updates.
func indexWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.SyncOrchestrator,
	rebuild bool,
) (driving.SyncReport, error) {
	type result struct {
		report driving.SyncReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := orch.Sync(ctx, rebuild)
		done <- result{report: report, err: err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case r := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return r.report, r.err
		case <-ticker.C:
			status := orch.Status()
			if status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

func printSyncReport(cmd *cobra.Command, r driving.SyncReport) {
	cmd.Printf("Read %d documents", r.Read)
	if r.Failed > 0 {
		cmd.Printf(" (%d failed)", r.Failed)
	}
	cmd.Println()

	if r.Rebuilt {
		cmd.Printf("Rebuilt index: %d documents, %d chunks\n", r.Documents, r.Chunks)
	} else {
		cmd.Printf("Added %d documents, %d chunks\n", r.Documents, r.Chunks)
	}
	if r.Existing > 0 {
		cmd.Printf("Skipped %d documents already indexed\n", r.Existing)
	}
	if r.Skipped > 0 {
		cmd.Printf("Skipped %d documents with no text\n", r.Skipped)
	}
	cmd.Printf("Index now holds %d chunks\n", r.Entries)
}
