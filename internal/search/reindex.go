package search

import (
	"context"
	"iter"
	"log/slog"
)

// DefaultCommitInterval is the number of documents indexed per commit.
const DefaultCommitInterval = 50

// Source supplies the documents ReindexMissing may index.
type Source interface {
	// Candidates yields every RFC whose document exists locally, as
	// number and title pairs.
	Candidates() iter.Seq2[int, string]

	// Body returns the decoded text of a downloaded RFC.
	Body(number int) (string, error)
}

// ReindexOptions tunes ReindexMissing.
type ReindexOptions struct {
	CommitInterval int
	Logger         *slog.Logger
	// Progress is called after each commit with the running totals.
	Progress func(done, total int)
}

// ReindexResult summarizes a ReindexMissing run.
type ReindexResult struct {
	Indexed int   `json:"indexed"`
	Skipped int   `json:"skipped"`
	Failed  []int `json:"failed,omitempty"`
}

// ReindexMissing indexes every candidate that is not in the engine yet.
//
// Presence in the index is the only test: an entry already indexed is never
// re-read. Work is committed every CommitInterval documents, so a canceled run
// keeps what it committed and a later run picks up the rest. A document that
// cannot be read is logged, recorded in Failed and skipped.
func ReindexMissing(ctx context.Context, engine Engine, src Source, opts ReindexOptions) (ReindexResult, error) {
	var result ReindexResult

	interval := opts.CommitInterval
	if interval <= 0 {
		interval = DefaultCommitInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	indexed, err := engine.IndexedNumbers(ctx)
	if err != nil {
		return result, err
	}
	present := make(map[int]struct{}, len(indexed))
	for _, n := range indexed {
		present[n] = struct{}{}
	}

	var todo []Document
	for number, title := range src.Candidates() {
		if _, ok := present[number]; ok {
			result.Skipped++
			continue
		}
		todo = append(todo, Document{Number: number, Title: title})
	}

	total := len(todo)
	batch := make([]Document, 0, interval)
	done := 0

	commit := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := engine.IndexBatch(ctx, batch); err != nil {
			return err
		}
		done += len(batch)
		result.Indexed += len(batch)
		logger.Debug("search_index_commit", slog.Int("documents", len(batch)), slog.Int("done", done))
		batch = batch[:0]
		if opts.Progress != nil {
			opts.Progress(done, total)
		}
		return nil
	}

	for _, doc := range todo {
		if err := ctx.Err(); err != nil {
			if cerr := commit(); cerr != nil {
				return result, cerr
			}
			return result, err
		}

		body, err := src.Body(doc.Number)
		if err != nil {
			logger.Warn("search_index_read_failed",
				slog.Int("rfc", doc.Number),
				slog.String("error", err.Error()))
			result.Failed = append(result.Failed, doc.Number)
			total--
			continue
		}
		doc.Body = body
		batch = append(batch, doc)

		if len(batch) >= interval {
			if err := commit(); err != nil {
				return result, err
			}
		}
	}

	if err := commit(); err != nil {
		return result, err
	}

	logger.Info("search_index_updated",
		slog.Int("indexed", result.Indexed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}
