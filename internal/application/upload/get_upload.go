package upload

import (
	"context"
)

type GetUploadInput struct {
	JobID string
}

type GetUpload interface {
	Execute(ctx context.Context, in GetUploadInput) (JobOutput, error)
}

type getUpload struct {
	jobs JobRepository
}

func NewGetUpload(jobs JobRepository) GetUpload {
	return &getUpload{jobs: jobs}
}

func (uc *getUpload) Execute(ctx context.Context, in GetUploadInput) (JobOutput, error) {
	job, err := uc.jobs.Get(ctx, in.JobID)
	if err != nil {
		return JobOutput{}, err
	}
	return toJobOutput(job), nil
}
