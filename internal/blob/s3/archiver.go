package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// Archiver implements domain.Archiver by serializing market history to
// JSONL and uploading monthly batches to object storage. It does not decide
// what to archive and never deletes anything; the retention sweep selects
// the records and prunes the hot stores only after the upload succeeds.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver uploading through the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveRounds uploads the given rounds as JSONL, batched by settlement
// month.
func (a *Archiver) ArchiveRounds(ctx context.Context, rounds []domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	batches := make(map[string][]any)
	for _, round := range rounds {
		at := round.CreatedAt
		if round.SettledAt != nil {
			at = *round.SettledAt
		}
		month := at.UTC().Format("2006-01")
		batches[month] = append(batches[month], round)
	}
	return a.uploadBatches(ctx, "archive/rounds", batches)
}

// ArchiveBets uploads the given bets as JSONL, batched by month. Claimed
// bets batch by claim time; unclaimed ones, which a prunable round can
// still carry when they are owed nothing, batch by placement time.
func (a *Archiver) ArchiveBets(ctx context.Context, bets []domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	batches := make(map[string][]any)
	for _, bet := range bets {
		at := bet.PlacedAt
		if bet.ClaimedAt != nil {
			at = *bet.ClaimedAt
		}
		month := at.UTC().Format("2006-01")
		batches[month] = append(batches[month], bet)
	}
	return a.uploadBatches(ctx, "archive/bets", batches)
}

// uploadBatches serializes each monthly batch to JSONL and uploads it. The
// upload timestamp is part of the key so repeated sweeps within one month
// never overwrite earlier batches.
func (a *Archiver) uploadBatches(ctx context.Context, prefix string, batches map[string][]any) error {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	for month, records := range batches {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, record := range records {
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("s3blob: encode archive record: %w", err)
			}
		}
		path := fmt.Sprintf("%s/%s/%s.jsonl", prefix, month, stamp)
		if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
			return fmt.Errorf("s3blob: upload archive %s: %w", path, err)
		}
	}
	return nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
