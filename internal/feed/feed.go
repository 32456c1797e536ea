// Package feed is the single entry point of the ingestion engine: it
// retrieves the raw CSV export once, then runs the fully synchronous
// detect/build/summarize pipeline over it. A failed run always comes
// back as one terminal error result, never a partial summary.
package feed

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/edpulse/edpulse-cli/internal/columns"
	"github.com/edpulse/edpulse-cli/internal/schema"
	"github.com/edpulse/edpulse-cli/internal/summary"
)

// Source configures one ingestion run.
type Source struct {
	URL             string
	HTTPTimeout     time.Duration
	RetryMax        int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	SynonymsFile    string
	TrendWindowDays int
}

// Meta describes the run itself.
type Meta struct {
	Mode  schema.Mode
	RunID string
}

// Result is the contract the dashboard consumes. On failure every data
// field is empty and Error carries the single human-readable message.
type Result struct {
	Records          []schema.Record
	Summary          summary.Summary
	Dispositions     []summary.DispositionEntry
	Daily            []summary.DailyStat
	Meta             Meta
	UsingFallback    bool
	LastErrorMessage string
	Error            string
	UpdatedAt        time.Time
}

func emptyResult(err error) Result {
	msg := friendlyMessage(err)
	return Result{
		Meta:             Meta{Mode: schema.ModeLegacy, RunID: uuid.NewString()},
		UsingFallback:    false,
		LastErrorMessage: msg,
		Error:            msg,
		UpdatedAt:        time.Now(),
	}
}

// Fetch retrieves the configured source and summarizes it. With no URL
// configured it returns the empty shape immediately without touching the
// network. Cancelling ctx aborts the retrieval; once parsing starts the
// pipeline runs to completion.
func Fetch(ctx context.Context, src Source) Result {
	if src.URL == "" {
		return emptyResult(&ConfigError{Msg: "no source URL configured"})
	}
	client := NewClient(src.HTTPTimeout, src.RetryMax, src.RetryBaseDelay, src.RetryMaxDelay)
	data, err := client.Get(ctx, src.URL)
	if err != nil {
		return emptyResult(&RetrievalError{URL: src.URL, Err: err})
	}
	return Transform(data, src)
}

// FetchFile runs the same pipeline over a local file, for operators
// summarizing an export on disk.
func FetchFile(path string, src Source) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyResult(&RetrievalError{URL: path, Err: err})
	}
	return Transform(data, src)
}

// Transform runs detection, record building, and summarization over
// already-retrieved CSV bytes.
func Transform(data []byte, src Source) Result {
	tables, err := columns.LoadTables(src.SynonymsFile)
	if err != nil {
		return emptyResult(err)
	}
	ds, _, err := schema.Parse(data, tables, 0)
	if err != nil {
		return emptyResult(&StructureError{Err: err})
	}
	out := summary.Summarize(ds.Records, ds.Mode, summary.Options{TrendWindowDays: src.TrendWindowDays})
	return Result{
		Records:      ds.Records,
		Summary:      out.Summary,
		Dispositions: out.Dispositions,
		Daily:        out.Daily,
		Meta:         Meta{Mode: ds.Mode, RunID: uuid.NewString()},
		UpdatedAt:    time.Now(),
	}
}
