package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goldmine/exercise-archive/internal/domain/catalog"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
	"github.com/goldmine/exercise-archive/internal/logger"
	"github.com/goldmine/exercise-archive/internal/metrics"
)

type CreateUploadInput struct {
	Archive    []byte
	Filename   string
	LectureID  int64
	Year       int
	Semester   string
	Professors string
	Assistants string
	FSPath     string
}

type JobOutput struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	FSPath string        `json:"fs_path"`
	Report domain.Report `json:"report"`
}

type CreateUpload interface {
	Execute(ctx context.Context, in CreateUploadInput) (JobOutput, error)
}

type createUpload struct {
	jobs       JobRepository
	stager     ArchiveStager
	classifier ReportClassifier
	catalog    catalog.Store
}

func NewCreateUpload(jobs JobRepository, stager ArchiveStager, classifier ReportClassifier, cat catalog.Store) CreateUpload {
	return &createUpload{jobs: jobs, stager: stager, classifier: classifier, catalog: cat}
}

func (uc *createUpload) Execute(ctx context.Context, in CreateUploadInput) (JobOutput, error) {
	if len(in.Archive) == 0 {
		return JobOutput{}, ErrMissingArchive
	}
	if in.LectureID <= 0 || in.Year <= 0 {
		return JobOutput{}, ErrMissingMetadata
	}
	semester := strings.ToUpper(strings.TrimSpace(in.Semester))
	if !catalog.ValidSemester(semester) {
		return JobOutput{}, ErrInvalidSemester
	}

	lecture, err := uc.catalog.GetLecture(ctx, in.LectureID)
	if err != nil {
		if errors.Is(err, catalog.ErrLectureNotFound) {
			return JobOutput{}, ErrLectureNotFound
		}
		return JobOutput{}, fmt.Errorf("%w: %v", ErrCreateUpload, err)
	}

	fsPath := strings.TrimSpace(in.FSPath)
	if fsPath == "" {
		fsPath = fmt.Sprintf("%s/%d%s", lecture.Name, in.Year, semester)
	}

	job := &domain.Job{
		ID:             uuid.NewString(),
		LectureID:      in.LectureID,
		Year:           in.Year,
		Semester:       semester,
		Professors:     in.Professors,
		Assistants:     in.Assistants,
		FSPath:         fsPath,
		SourceFilename: in.Filename,
		Status:         domain.StatusPending,
	}

	// Staging and classification run before the job row exists: an unsafe
	// or oversized archive is rejected without leaving a job behind.
	listing, err := uc.stager.Stage(ctx, job.ID, in.Archive)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		if removeErr := uc.stager.Remove(ctx, job.ID); removeErr != nil {
			logger.Get().Warn().Err(removeErr).Str("job_id", job.ID).Msg("cleanup rejected staging failed")
		}
		return JobOutput{}, err
	}

	report := uc.classifier.Classify(listing)
	metrics.ClassifiedSeriesTotal.Add(float64(len(report.Series)))

	job.UploadDir = listing.Root
	job.Report = &report
	job.Status = domain.StatusValidated

	if err := uc.jobs.Create(ctx, job); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		if removeErr := uc.stager.Remove(ctx, job.ID); removeErr != nil {
			logger.Get().Warn().Err(removeErr).Str("job_id", job.ID).Msg("cleanup staging failed")
		}
		return JobOutput{}, fmt.Errorf("%w: %v", ErrCreateUpload, err)
	}

	metrics.UploadsTotal.WithLabelValues("validated").Inc()
	logger.Get().Info().
		Str("job_id", job.ID).
		Int64("lecture_id", in.LectureID).
		Int("series", len(report.Series)).
		Int("unassigned", len(report.Unassigned)).
		Msg("upload validated")

	return toJobOutput(job), nil
}

func toJobOutput(job *domain.Job) JobOutput {
	out := JobOutput{
		ID:     job.ID,
		Status: string(job.Status),
		FSPath: job.FSPath,
		Report: domain.Report{Series: []domain.SeriesDraft{}, Unassigned: []string{}, Warnings: []string{}},
	}
	if job.Report != nil {
		out.Report = *job.Report
	}
	return out
}
