package policies

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/progress"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// Ingester keeps the vector index in step with the policy directory.
type Ingester struct {
	store    vectordb.VectorStore
	reporter progress.Reporter
	log      *logger.Logger
}

// NewIngester creates an Ingester writing into store.
func NewIngester(store vectordb.VectorStore, reporter progress.Reporter, log *logger.Logger) *Ingester {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ingester{store: store, reporter: reporter, log: log}
}

// Options selects what to ingest and where the index lives.
type Options struct {
	Dir       string
	Include   []string
	VectorDir string
	// Force re-ingests files whose content has not changed.
	Force bool
}

// Result summarises an ingestion run.
type Result struct {
	FilesIngested int
	FilesSkipped  int
	FilesRemoved  int
	Passages      int
	Duration      time.Duration
}

// Run ingests changed policy files, drops passages of deleted files and
// persists the index and state to opts.VectorDir.
func (in *Ingester) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{}

	state, err := LoadState(opts.VectorDir)
	if err != nil {
		return nil, fmt.Errorf("loading ingest state: %w", err)
	}
	// The index was lost or never loaded; state alone cannot be trusted.
	if len(state.FileHashes) > 0 && in.store.Count() == 0 {
		opts.Force = true
	}
	files, err := Discover(opts.Dir, opts.Include)
	if err != nil {
		return nil, err
	}

	var changed []File
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.RelPath] = true
		if opts.Force || state.Changed(f.RelPath, f.ContentHash) {
			changed = append(changed, f)
		} else {
			result.FilesSkipped++
		}
	}

	for rel := range state.FileHashes {
		if present[rel] {
			continue
		}
		if err := in.store.DeleteBySource(ctx, rel); err != nil {
			return result, fmt.Errorf("removing passages of %s: %w", rel, err)
		}
		delete(state.FileHashes, rel)
		result.FilesRemoved++
		in.log.Info("policy removed from index", "source", rel)
	}

	in.reporter.Start(len(changed))
	now := time.Now()
	for i, f := range changed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		in.reporter.Update(i+1, f.RelPath)

		src, err := os.ReadFile(f.Path)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", f.RelPath, err)
		}
		docs := Chunk(f.RelPath, src, now)

		if err := in.store.DeleteBySource(ctx, f.RelPath); err != nil {
			return result, fmt.Errorf("removing old passages of %s: %w", f.RelPath, err)
		}
		if len(docs) > 0 {
			if err := in.store.AddDocuments(ctx, docs); err != nil {
				return result, fmt.Errorf("indexing %s: %w", f.RelPath, err)
			}
		}

		state.FileHashes[f.RelPath] = f.ContentHash
		result.FilesIngested++
		result.Passages += len(docs)
		in.log.Debug("policy ingested", "source", f.RelPath, "passages", len(docs))
	}
	in.reporter.Finish()

	if err := in.store.Persist(ctx, opts.VectorDir); err != nil {
		return result, fmt.Errorf("persisting vector index: %w", err)
	}
	if err := state.Save(opts.VectorDir); err != nil {
		return result, fmt.Errorf("saving ingest state: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}
