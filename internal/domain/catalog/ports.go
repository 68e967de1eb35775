package catalog

import "context"

// Store is the catalog surface the import pipeline consumes.
type Store interface {
	GetLecture(ctx context.Context, lectureID int64) (*Lecture, error)
	// WithinTx runs fn inside a single transaction; any error rolls back
	// every catalog write made through the Tx.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the catalog mutations available inside one commit transaction.
type Tx interface {
	FindOrCreateSemesterGroup(ctx context.Context, group SemesterGroup) (int64, error)
	// FindLiveSeries returns the live series at (groupID, number), locking
	// the row for the remainder of the transaction, or nil if none exists.
	FindLiveSeries(ctx context.Context, groupID int64, number int) (*Series, error)
	CreateSeries(ctx context.Context, series Series) (int64, error)
	// SupersedeSeries soft-deletes old and inserts a replacement linked to it.
	SupersedeSeries(ctx context.Context, oldID int64, series Series) (int64, error)
	// OverwriteSeries updates the file pointers of a live row in place,
	// archiving a soft-deleted predecessor snapshot first.
	OverwriteSeries(ctx context.Context, seriesID int64, refs FileRefs) error
}
