package upload

import "errors"

var (
	ErrMissingArchive        = errors.New("missing archive file")
	ErrMissingMetadata       = errors.New("lecture_id and year are required")
	ErrInvalidSemester       = errors.New("semester must be HS or FS")
	ErrLectureNotFound       = errors.New("lecture not found")
	ErrCreateUpload          = errors.New("failed to create upload job")
	ErrNoSeries              = errors.New("no series to import")
	ErrDuplicateSeriesNumber = errors.New("duplicate series number in batch")
	ErrBlockingDraft         = errors.New("draft has blocking issues")
	ErrStagedFileMissing     = errors.New("referenced file not found in staged archive")
	ErrCommitFailed          = errors.New("commit failed")
)
