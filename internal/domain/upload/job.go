package upload

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusValidated  Status = "validated"
	StatusCommitting Status = "committing"
	StatusImported   Status = "imported"
	StatusFailed     Status = "failed"
)

// Job is one archive submission. The report is immutable once the classifier
// has run; re-validation means a new job.
type Job struct {
	ID             string
	LectureID      int64
	Year           int
	Semester       string
	Professors     string
	Assistants     string
	FSPath         string
	SourceFilename string
	UploadDir      string
	Status         Status
	Report         *Report
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Deletable reports whether the job may be purged together with its staging
// directory. Imported jobs are kept as an audit trail; a committing job is
// in flight.
func (j *Job) Deletable() bool {
	switch j.Status {
	case StatusPending, StatusValidated, StatusFailed:
		return true
	default:
		return false
	}
}
