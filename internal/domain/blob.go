package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver exports settled market history to cold storage. Archival is a
// storage-lifecycle policy layered on top of the stores; settlement and
// claim logic never depend on it. The retention sweep selects what to
// archive; the archiver only serializes and uploads it.
type Archiver interface {
	ArchiveRounds(ctx context.Context, rounds []Round) error
	ArchiveBets(ctx context.Context, bets []Bet) error
}
