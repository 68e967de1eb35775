package upload

import (
	"context"
	"fmt"

	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
	"github.com/goldmine/exercise-archive/internal/logger"
)

type DeleteUploadInput struct {
	JobID string
}

// DeleteUpload purges an abandoned job together with its staging directory.
type DeleteUpload interface {
	Execute(ctx context.Context, in DeleteUploadInput) error
}

type deleteUpload struct {
	jobs   JobRepository
	stager ArchiveStager
}

func NewDeleteUpload(jobs JobRepository, stager ArchiveStager) DeleteUpload {
	return &deleteUpload{jobs: jobs, stager: stager}
}

func (uc *deleteUpload) Execute(ctx context.Context, in DeleteUploadInput) error {
	job, err := uc.jobs.Get(ctx, in.JobID)
	if err != nil {
		return err
	}
	if !job.Deletable() {
		return domain.ErrNotDeletable
	}

	if err := uc.stager.Remove(ctx, job.ID); err != nil {
		return fmt.Errorf("purge staging: %w", err)
	}
	if err := uc.jobs.Delete(ctx, job.ID); err != nil {
		return err
	}

	logger.Get().Info().Str("job_id", job.ID).Msg("upload job purged")
	return nil
}
