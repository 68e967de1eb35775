package upload

import "errors"

var (
	ErrJobNotFound    = errors.New("upload job not found")
	ErrNotCommittable = errors.New("upload job is not in a committable state")
	ErrNotDeletable   = errors.New("upload job is not in a deletable state")
)
