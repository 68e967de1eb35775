package upload

import (
	"context"
	"io"

	"github.com/goldmine/exercise-archive/internal/archive"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
)

// ArchiveStager is the staging area scoped to one upload job.
type ArchiveStager interface {
	Stage(ctx context.Context, jobID string, data []byte) (archive.Listing, error)
	Exists(ctx context.Context, jobID string, relPath string) (bool, error)
	Open(ctx context.Context, jobID string, relPath string) (io.ReadCloser, error)
	Remove(ctx context.Context, jobID string) error
}

// JobRepository persists upload jobs and their status transitions.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	ClaimForCommit(ctx context.Context, jobID string) error
	ReleaseClaim(ctx context.Context, jobID string) error
	MarkImported(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	Delete(ctx context.Context, jobID string) error
}

// MediaStore is the durable file store under the lecture media root.
type MediaStore interface {
	Write(ctx context.Context, destPath string, r io.Reader) error
	Remove(ctx context.Context, destPath string) error
	Snapshot(ctx context.Context, destPaths []string, snapshotDir string) error
	Restore(ctx context.Context, snapshotDir string, destPaths []string) error
}

// RenderQueue submits render jobs to the external render worker.
type RenderQueue interface {
	EnqueueSeriesRender(ctx context.Context, seriesIDs []int64) (string, error)
}

// ReportClassifier produces the upload report from a staged listing.
type ReportClassifier interface {
	Classify(listing archive.Listing) domain.Report
}
