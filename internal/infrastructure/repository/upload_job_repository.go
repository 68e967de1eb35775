package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
	"github.com/goldmine/exercise-archive/internal/infrastructure/db/models"
)

type UploadJobRepository struct {
	db *gorm.DB
}

func NewUploadJobRepository(db *gorm.DB) *UploadJobRepository {
	return &UploadJobRepository{db: db}
}

func (r *UploadJobRepository) Create(ctx context.Context, job *domain.Job) error {
	row, err := toRow(job)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create upload job: %w", err)
	}
	return nil
}

func (r *UploadJobRepository) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var row models.UploadJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get upload job: %w", err)
	}

	return toDomain(&row)
}

// ClaimForCommit flips a validated or failed job to committing. The
// conditional update is the compare-and-swap that makes commit single-shot:
// a concurrent retry loses the race and gets ErrNotCommittable.
func (r *UploadJobRepository) ClaimForCommit(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status IN ?", jobID, []string{
			string(domain.StatusValidated),
			string(domain.StatusFailed),
		}).
		Update("status", string(domain.StatusCommitting))
	if res.Error != nil {
		return fmt.Errorf("claim upload job for commit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotCommittable
	}
	return nil
}

// ReleaseClaim returns a committing job to validated after a precondition
// failure, so the reviewer can fix the payload and retry.
func (r *UploadJobRepository) ReleaseClaim(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ? AND status = ?", jobID, string(domain.StatusCommitting)).
		Update("status", string(domain.StatusValidated))
	if res.Error != nil {
		return fmt.Errorf("release upload job claim: %w", res.Error)
	}
	return nil
}

func (r *UploadJobRepository) MarkImported(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":        string(domain.StatusImported),
			"error_message": "",
		})
	if res.Error != nil {
		return fmt.Errorf("mark upload job imported: %w", res.Error)
	}
	return nil
}

func (r *UploadJobRepository) MarkFailed(ctx context.Context, jobID string, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&models.UploadJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":        string(domain.StatusFailed),
			"error_message": reason,
		})
	if res.Error != nil {
		return fmt.Errorf("mark upload job failed: %w", res.Error)
	}
	return nil
}

func (r *UploadJobRepository) Delete(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).Delete(&models.UploadJob{}, "id = ?", jobID)
	if res.Error != nil {
		return fmt.Errorf("delete upload job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func toRow(job *domain.Job) (*models.UploadJob, error) {
	row := &models.UploadJob{
		ID:             job.ID,
		LectureID:      job.LectureID,
		Year:           job.Year,
		Semester:       job.Semester,
		Professors:     job.Professors,
		Assistants:     job.Assistants,
		FSPath:         job.FSPath,
		SourceFilename: job.SourceFilename,
		UploadDir:      job.UploadDir,
		Status:         string(job.Status),
		ErrorMessage:   job.ErrorMessage,
	}

	if job.Report != nil {
		raw, err := json.Marshal(job.Report)
		if err != nil {
			return nil, fmt.Errorf("marshal upload report: %w", err)
		}
		row.ReportJSON = raw
	}
	return row, nil
}

func toDomain(row *models.UploadJob) (*domain.Job, error) {
	job := &domain.Job{
		ID:             row.ID,
		LectureID:      row.LectureID,
		Year:           row.Year,
		Semester:       row.Semester,
		Professors:     row.Professors,
		Assistants:     row.Assistants,
		FSPath:         row.FSPath,
		SourceFilename: row.SourceFilename,
		UploadDir:      row.UploadDir,
		Status:         domain.Status(row.Status),
		ErrorMessage:   row.ErrorMessage,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}

	if len(row.ReportJSON) > 0 {
		var report domain.Report
		if err := json.Unmarshal(row.ReportJSON, &report); err != nil {
			return nil, fmt.Errorf("unmarshal upload report: %w", err)
		}
		job.Report = &report
	}
	return job, nil
}
