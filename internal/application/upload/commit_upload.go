package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/goldmine/exercise-archive/internal/domain/catalog"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
	"github.com/goldmine/exercise-archive/internal/logger"
	"github.com/goldmine/exercise-archive/internal/metrics"
)

type CommitSeriesInput struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	TexFile      string `json:"tex_file"`
	PDFFile      string `json:"pdf_file"`
	SolutionFile string `json:"solution_file"`
}

type CommitUploadInput struct {
	JobID     string
	Overwrite bool
	Series    []CommitSeriesInput
}

type CommitUploadOutput struct {
	Status          string  `json:"status"`
	SemesterGroupID int64   `json:"semester_group_id"`
	SeriesIDs       []int64 `json:"series_ids"`
	RenderJobID     string  `json:"render_job_id,omitempty"`
	RenderError     string  `json:"render_error,omitempty"`
}

type CommitUpload interface {
	Execute(ctx context.Context, in CommitUploadInput) (CommitUploadOutput, error)
}

type commitUpload struct {
	jobs    JobRepository
	stager  ArchiveStager
	media   MediaStore
	catalog catalog.Store
	render  RenderQueue
}

func NewCommitUpload(jobs JobRepository, stager ArchiveStager, media MediaStore, cat catalog.Store, render RenderQueue) CommitUpload {
	return &commitUpload{jobs: jobs, stager: stager, media: media, catalog: cat, render: render}
}

// Execute imports the reviewed drafts of one job into the catalog. The whole
// batch is one transaction: any failure rolls back every catalog write,
// removes the files copied so far and marks the job failed. Re-running a
// failed commit is safe; series imported by an earlier attempt are found by
// the live-series lookup and superseded instead of duplicated.
func (uc *commitUpload) Execute(ctx context.Context, in CommitUploadInput) (CommitUploadOutput, error) {
	job, err := uc.jobs.Get(ctx, in.JobID)
	if err != nil {
		return CommitUploadOutput{}, err
	}

	if err := uc.jobs.ClaimForCommit(ctx, job.ID); err != nil {
		return CommitUploadOutput{}, err
	}

	drafts := in.Series
	if len(drafts) == 0 && job.Report != nil {
		for _, d := range job.Report.Series {
			drafts = append(drafts, CommitSeriesInput{
				Number:       d.Number,
				Title:        d.Title,
				TexFile:      d.TexFile,
				PDFFile:      d.PDFFile,
				SolutionFile: d.SolutionFile,
			})
		}
	}

	if err := uc.validateDrafts(ctx, job.ID, drafts); err != nil {
		// Precondition failures are rejections, not commit failures: the
		// claim is released so the reviewer can fix the payload and retry.
		if releaseErr := uc.jobs.ReleaseClaim(ctx, job.ID); releaseErr != nil {
			logger.Get().Error().Err(releaseErr).Str("job_id", job.ID).Msg("release commit claim failed")
		}
		metrics.CommitsTotal.WithLabelValues("rejected").Inc()
		return CommitUploadOutput{}, err
	}

	var (
		groupID   int64
		seriesIDs []int64
		rb        commitRollback
	)

	txErr := uc.catalog.WithinTx(ctx, func(tx catalog.Tx) error {
		var err error
		groupID, err = tx.FindOrCreateSemesterGroup(ctx, catalog.SemesterGroup{
			LectureID:  job.LectureID,
			Year:       job.Year,
			Semester:   job.Semester,
			Professors: job.Professors,
			Assistants: job.Assistants,
			FSPath:     job.FSPath,
		})
		if err != nil {
			return err
		}

		for _, draft := range drafts {
			id, err := uc.commitDraft(ctx, tx, job, groupID, draft, in.Overwrite, &rb)
			if err != nil {
				return err
			}
			seriesIDs = append(seriesIDs, id)
		}
		return nil
	})

	if txErr != nil {
		uc.rollbackMedia(ctx, &rb)
		reason := truncateReason(txErr.Error())
		if failErr := uc.jobs.MarkFailed(ctx, job.ID, reason); failErr != nil {
			logger.Get().Error().Err(failErr).Str("job_id", job.ID).Msg("mark job failed failed")
		}
		metrics.CommitsTotal.WithLabelValues("failed").Inc()
		logger.Get().Error().Err(txErr).Str("job_id", job.ID).Msg("upload commit failed")
		return CommitUploadOutput{}, fmt.Errorf("%w: %v", ErrCommitFailed, txErr)
	}

	// Past this point the catalog tx is committed and is the source of
	// truth. A failed status update must not masquerade as a commit
	// failure; the stale job row is logged for the operator instead.
	if err := uc.jobs.MarkImported(ctx, job.ID); err != nil {
		logger.Get().Error().Err(err).Str("job_id", job.ID).Msg("mark job imported failed after catalog commit")
	}

	if err := uc.stager.Remove(ctx, job.ID); err != nil {
		logger.Get().Warn().Err(err).Str("job_id", job.ID).Msg("remove staging after commit failed")
	}

	out := CommitUploadOutput{
		Status:          string(domain.StatusImported),
		SemesterGroupID: groupID,
		SeriesIDs:       seriesIDs,
	}

	// Rendering is best-effort: an enqueue failure is reported to the
	// caller but never unwinds the committed catalog state.
	renderID, renderErr := uc.render.EnqueueSeriesRender(ctx, seriesIDs)
	if renderErr != nil {
		out.RenderError = renderErr.Error()
		metrics.RenderEnqueueTotal.WithLabelValues("error").Inc()
		logger.Get().Warn().Err(renderErr).Str("job_id", job.ID).Msg("render enqueue failed")
	} else {
		out.RenderJobID = renderID
		metrics.RenderEnqueueTotal.WithLabelValues("ok").Inc()
	}

	metrics.CommitsTotal.WithLabelValues("imported").Inc()
	logger.Get().Info().
		Str("job_id", job.ID).
		Int64("semester_group_id", groupID).
		Int("series", len(seriesIDs)).
		Msg("upload imported")

	return out, nil
}

func (uc *commitUpload) validateDrafts(ctx context.Context, jobID string, drafts []CommitSeriesInput) error {
	if len(drafts) == 0 {
		return ErrNoSeries
	}

	seen := make(map[int]bool, len(drafts))
	for _, d := range drafts {
		if seen[d.Number] {
			return fmt.Errorf("%w: %d", ErrDuplicateSeriesNumber, d.Number)
		}
		seen[d.Number] = true

		draft := domain.SeriesDraft{Number: d.Number, PDFFile: d.PDFFile}
		if draft.Blocking() {
			return fmt.Errorf("%w: series %d", ErrBlockingDraft, d.Number)
		}

		for _, rel := range []string{d.PDFFile, d.TexFile, d.SolutionFile} {
			if rel == "" {
				continue
			}
			ok, err := uc.stager.Exists(ctx, jobID, rel)
			if err != nil {
				return fmt.Errorf("check staged file %s: %w", rel, err)
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrStagedFileMissing, rel)
			}
		}
	}
	return nil
}

// commitRollback tracks the media writes of one commit attempt so a failed
// transaction can undo them: copied files are removed, overwritten live
// files are put back from their snapshot.
type commitRollback struct {
	copied   []string
	restores map[string][]string
}

func (rb *commitRollback) restoreFrom(snapshotDir string, paths []string) {
	if rb.restores == nil {
		rb.restores = map[string][]string{}
	}
	rb.restores[snapshotDir] = paths
}

// commitDraft imports one draft and returns the resulting series id. Every
// media write is recorded on rb before errors are checked.
func (uc *commitUpload) commitDraft(ctx context.Context, tx catalog.Tx, job *domain.Job, groupID int64, draft CommitSeriesInput, overwrite bool, rb *commitRollback) (int64, error) {
	existing, err := tx.FindLiveSeries(ctx, groupID, draft.Number)
	if err != nil {
		return 0, err
	}

	switch {
	case existing == nil:
		refs := plainRefs(draft)
		written, err := uc.copyFiles(ctx, job, draft, refs)
		rb.copied = append(rb.copied, written...)
		if err != nil {
			return 0, err
		}
		return tx.CreateSeries(ctx, catalog.Series{
			SemesterGroupID: groupID,
			Number:          draft.Number,
			Title:           draft.Title,
			Files:           refs,
		})

	case !overwrite:
		// Supersede: new files land under a job-scoped revision prefix so
		// the predecessor's files stay readable.
		refs := revisionRefs(job.ID, draft)
		written, err := uc.copyFiles(ctx, job, draft, refs)
		rb.copied = append(rb.copied, written...)
		if err != nil {
			return 0, err
		}
		return tx.SupersedeSeries(ctx, existing.ID, catalog.Series{
			SemesterGroupID: groupID,
			Number:          draft.Number,
			Title:           draft.Title,
			Files:           refs,
		})

	default:
		// Overwrite in place, but snapshot the prior files first so the
		// operator can still recover them.
		snapshotDir := fmt.Sprintf("%s/_archive/series_%d_%s", job.FSPath, existing.ID, revisionTag(job.ID))
		oldPaths := []string{
			mediaPath(job.FSPath, existing.Files.PDFFile),
			mediaPath(job.FSPath, existing.Files.TexFile),
			mediaPath(job.FSPath, existing.Files.SolutionFile),
		}
		if err := uc.media.Snapshot(ctx, oldPaths, snapshotDir); err != nil {
			return 0, fmt.Errorf("archive snapshot for series %d: %w", existing.ID, err)
		}
		rb.restoreFrom(snapshotDir, oldPaths)

		refs := plainRefs(draft)
		written, err := uc.copyFiles(ctx, job, draft, refs)
		rb.copied = append(rb.copied, written...)
		if err != nil {
			return 0, err
		}
		if err := tx.OverwriteSeries(ctx, existing.ID, refs); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}
}

func (uc *commitUpload) copyFiles(ctx context.Context, job *domain.Job, draft CommitSeriesInput, refs catalog.FileRefs) ([]string, error) {
	slots := []struct {
		staged string
		ref    string
	}{
		{draft.PDFFile, refs.PDFFile},
		{draft.TexFile, refs.TexFile},
		{draft.SolutionFile, refs.SolutionFile},
	}

	var written []string
	for _, slot := range slots {
		if slot.staged == "" {
			continue
		}

		src, err := uc.stager.Open(ctx, job.ID, slot.staged)
		if err != nil {
			return written, fmt.Errorf("%w: %s", ErrStagedFileMissing, slot.staged)
		}

		dest := mediaPath(job.FSPath, slot.ref)
		writeErr := uc.media.Write(ctx, dest, src)
		src.Close()
		if writeErr != nil {
			return written, writeErr
		}
		written = append(written, dest)
	}
	return written, nil
}

// rollbackMedia undoes the media writes of a failed commit: new files are
// removed first, then overwritten live files come back from their snapshot.
// Removal runs first so a live path that coincides with a copied path ends
// up holding the snapshot bytes.
func (uc *commitUpload) rollbackMedia(ctx context.Context, rb *commitRollback) {
	for _, p := range rb.copied {
		if err := uc.media.Remove(ctx, p); err != nil {
			logger.Get().Warn().Err(err).Str("path", p).Msg("cleanup copied file failed")
		}
	}
	for dir, paths := range rb.restores {
		if err := uc.media.Restore(ctx, dir, paths); err != nil {
			logger.Get().Warn().Err(err).Str("snapshot_dir", dir).Msg("restore overwritten files failed")
		}
	}
}

func plainRefs(draft CommitSeriesInput) catalog.FileRefs {
	return catalog.FileRefs{
		TexFile:      draft.TexFile,
		PDFFile:      draft.PDFFile,
		SolutionFile: draft.SolutionFile,
	}
}

func revisionRefs(jobID string, draft CommitSeriesInput) catalog.FileRefs {
	prefix := "rev-" + revisionTag(jobID) + "/"
	refs := catalog.FileRefs{}
	if draft.TexFile != "" {
		refs.TexFile = prefix + draft.TexFile
	}
	if draft.PDFFile != "" {
		refs.PDFFile = prefix + draft.PDFFile
	}
	if draft.SolutionFile != "" {
		refs.SolutionFile = prefix + draft.SolutionFile
	}
	return refs
}

func revisionTag(jobID string) string {
	if len(jobID) > 8 {
		return jobID[:8]
	}
	return jobID
}

func mediaPath(fsPath, ref string) string {
	if ref == "" {
		return ""
	}
	return fsPath + "/" + ref
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
