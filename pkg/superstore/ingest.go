package superstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
)

const (
	DefaultBatchSize   = 500
	DefaultConcurrency = 4
)

// KeyField identifies a record in the collection. Loading a row whose key
// already exists replaces the stored document.
const KeyField = "rowId"

// Upserter stores a batch of documents keyed by keyField and returns how many
// were stored.
type Upserter interface {
	UpsertMany(ctx context.Context, keyField string, keys []any, docs []any) (int, error)
}

type IngestConfig struct {
	Logger      *slog.Logger
	Upserter    Upserter
	BatchSize   int
	Concurrency int
}

func (cfg *IngestConfig) Validate() error {
	if cfg.Upserter == nil {
		return fmt.Errorf("upserter is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return nil
}

// IngestResult summarizes one ingestion.
type IngestResult struct {
	Parsed   int
	Stored   int
	Batches  int
	Duration time.Duration
}

// Ingester parses CSV exports and loads them in concurrent batches.
type Ingester struct {
	cfg  *IngestConfig
	log  *slog.Logger
	pool pond.ResultPool[int]
}

func NewIngester(cfg *IngestConfig) (*Ingester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate ingest config: %w", err)
	}
	return &Ingester{
		cfg:  cfg,
		log:  cfg.Logger,
		pool: pond.NewResultPool[int](cfg.Concurrency),
	}, nil
}

// Ingest parses the whole input first and stores nothing if any row is
// invalid. Batches are then upserted concurrently by row id, so loading
// the same export twice leaves one copy of each row.
func (in *Ingester) Ingest(ctx context.Context, r io.Reader) (IngestResult, error) {
	start := time.Now()

	records, err := ReadAll(r)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	in.log.Info("superstore: parsed records", "count", len(records))

	batches := Batch(Dedupe(records), in.cfg.BatchSize)
	group := in.pool.NewGroupContext(ctx)
	for _, batch := range batches {
		group.SubmitErr(func() (int, error) {
			keys := make([]any, len(batch))
			docs := make([]any, len(batch))
			for i := range batch {
				keys[i] = batch[i].RowID
				docs[i] = batch[i]
			}
			return in.cfg.Upserter.UpsertMany(ctx, KeyField, keys, docs)
		})
	}

	counts, err := group.Wait()
	stored := 0
	for _, n := range counts {
		stored += n
	}
	res := IngestResult{
		Parsed:   len(records),
		Stored:   stored,
		Batches:  len(batches),
		Duration: time.Since(start),
	}
	if err != nil {
		return res, fmt.Errorf("failed to store records: %w", err)
	}

	in.log.Info("superstore: ingestion completed", "parsed", res.Parsed, "stored", res.Stored, "batches", res.Batches, "duration", res.Duration)
	return res, nil
}

// Close waits for in-flight batches and releases the worker pool.
func (in *Ingester) Close() {
	in.pool.StopAndWait()
}

// Dedupe keeps one record per row id, in first-seen order. A later row with
// the same id overwrites the earlier one, matching what sequential upserts
// would leave behind.
func Dedupe(records []Record) []Record {
	idx := make(map[int32]int, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if i, ok := idx[rec.RowID]; ok {
			out[i] = rec
			continue
		}
		idx[rec.RowID] = len(out)
		out = append(out, rec)
	}
	return out
}

// Batch splits records into consecutive chunks of at most size.
func Batch(records []Record, size int) [][]Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Record
	for len(records) > 0 {
		n := min(size, len(records))
		out = append(out, records[:n])
		records = records[n:]
	}
	return out
}
