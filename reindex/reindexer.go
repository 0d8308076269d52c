// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultBatchSize is the number of sessions handled between context checks.
	DefaultBatchSize = 50

	// DefaultReportInterval is how many documents pass between progress lines.
	DefaultReportInterval = 10
)

// Ingester re-ingests a session document. ingestion.Pipeline satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, sessionID, text string, opts *ingestion.IngestOptions) (*ingestion.Result, error)
}

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of sessions handled per batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// StopOnError aborts the run at the first failed document
	StopOnError bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultReportInterval,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	Sessions  int
	Documents int
	Reindexed int
	Failed    int
	Elapsed   time.Duration
}

// Reindexer re-ingests every session document.
type Reindexer struct {
	sessions storage.SessionRepository
	ingester Ingester
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a reindexer.
// progress: where to write progress output (typically os.Stderr); nil discards it.
func NewReindexer(sessions storage.SessionRepository, ingester Ingester, config *Config, progress io.Writer) (*Reindexer, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultReportInterval
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		sessions: sessions,
		ingester: ingester,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reindex"),
	}, nil
}

// Run re-ingests every session that has a document.
//
// Failed documents are counted and joined into the returned error; the run
// continues unless StopOnError is set. Context cancellation stops the run
// between documents.
func (r *Reindexer) Run(ctx context.Context) (*Summary, error) {
	all, err := r.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	withDocs := make([]*core.ChatSession, 0, len(all))
	for _, s := range all {
		if s.HasDocument() {
			withDocs = append(withDocs, s)
		}
	}
	summary := &Summary{Sessions: len(all), Documents: len(withDocs)}
	if len(withDocs) == 0 {
		fmt.Fprintf(r.progress, "No documents to reindex (%d sessions)\n", len(all))
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Reindexing %d documents from %d sessions (batch size: %d)\n",
		len(withDocs), len(all), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(withDocs), r.config.ReportInterval)
	tracker.Start()

	var errs []error
	for start := 0; start < len(withDocs); start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, len(withDocs))
		for _, session := range withDocs[start:end] {
			if err := ctx.Err(); err != nil {
				summary.Elapsed = tracker.Elapsed()
				return summary, err
			}

			err := r.reindexOne(ctx, session)
			switch {
			case err == nil:
				summary.Reindexed++
			case errors.Is(err, core.ErrNotFound):
				// Deleted since listing.
				r.logger.Debug("session vanished during reindex", "session", session.ID)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				summary.Elapsed = tracker.Elapsed()
				return summary, err
			default:
				summary.Failed++
				r.logger.Error("failed to reindex document", "session", session.ID, "err", err)
				errs = append(errs, fmt.Errorf("session %s: %w", session.ID, err))
				if r.config.StopOnError {
					summary.Elapsed = tracker.Elapsed()
					return summary, errors.Join(errs...)
				}
			}
			tracker.Increment(1)
		}
	}

	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. %d reindexed, %d failed in %v\n",
		summary.Reindexed, summary.Failed, summary.Elapsed.Round(time.Millisecond))

	return summary, errors.Join(errs...)
}

func (r *Reindexer) reindexOne(ctx context.Context, session *core.ChatSession) error {
	doc := session.Document
	_, err := r.ingester.Ingest(ctx, session.ID, doc.Text, &ingestion.IngestOptions{Filename: doc.Filename})
	return err
}
