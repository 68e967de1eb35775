package catalog

import "errors"

var (
	ErrLectureNotFound = errors.New("lecture not found")
	ErrSeriesConflict  = errors.New("conflicting live series")
)
