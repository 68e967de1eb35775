package upload_test

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/goldmine/exercise-archive/internal/archive"
	"github.com/goldmine/exercise-archive/internal/domain/catalog"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
)

type fakeJobRepo struct {
	jobs            map[string]*domain.Job
	claimErr        error
	markImportedErr error
	failedReason    string
	releaseCalled   bool
}

func newFakeJobRepo(jobs ...*domain.Job) *fakeJobRepo {
	repo := &fakeJobRepo{jobs: map[string]*domain.Job{}}
	for _, j := range jobs {
		repo.jobs[j.ID] = j
	}
	return repo
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.Job) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) ClaimForCommit(ctx context.Context, jobID string) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	job := f.jobs[jobID]
	if job.Status != domain.StatusValidated && job.Status != domain.StatusFailed {
		return domain.ErrNotCommittable
	}
	job.Status = domain.StatusCommitting
	return nil
}

func (f *fakeJobRepo) ReleaseClaim(ctx context.Context, jobID string) error {
	f.releaseCalled = true
	if job, ok := f.jobs[jobID]; ok && job.Status == domain.StatusCommitting {
		job.Status = domain.StatusValidated
	}
	return nil
}

func (f *fakeJobRepo) MarkImported(ctx context.Context, jobID string) error {
	if f.markImportedErr != nil {
		return f.markImportedErr
	}
	f.jobs[jobID].Status = domain.StatusImported
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, jobID string, reason string) error {
	f.jobs[jobID].Status = domain.StatusFailed
	f.jobs[jobID].ErrorMessage = reason
	f.failedReason = reason
	return nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, jobID string) error {
	if _, ok := f.jobs[jobID]; !ok {
		return domain.ErrJobNotFound
	}
	delete(f.jobs, jobID)
	return nil
}

type fakeStager struct {
	listing  archive.Listing
	stageErr error
	staged   map[string]string
	removed  []string
}

func (f *fakeStager) Stage(ctx context.Context, jobID string, data []byte) (archive.Listing, error) {
	if f.stageErr != nil {
		return archive.Listing{}, f.stageErr
	}
	return f.listing, nil
}

func (f *fakeStager) Exists(ctx context.Context, jobID string, relPath string) (bool, error) {
	_, ok := f.staged[relPath]
	return ok, nil
}

func (f *fakeStager) Open(ctx context.Context, jobID string, relPath string) (io.ReadCloser, error) {
	content, ok := f.staged[relPath]
	if !ok {
		return nil, fmt.Errorf("not staged: %s", relPath)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeStager) Remove(ctx context.Context, jobID string) error {
	f.removed = append(f.removed, jobID)
	return nil
}

type fakeMedia struct {
	files     map[string]string
	snapshots map[string]map[string]string
	writeErr  error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{files: map[string]string{}, snapshots: map[string]map[string]string{}}
}

func (f *fakeMedia) Write(ctx context.Context, destPath string, r io.Reader) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files[destPath] = string(content)
	return nil
}

func (f *fakeMedia) Remove(ctx context.Context, destPath string) error {
	delete(f.files, destPath)
	return nil
}

// Snapshot mirrors the store's first-copy-wins rule: a name already in the
// snapshot dir is never replaced.
func (f *fakeMedia) Snapshot(ctx context.Context, destPaths []string, snapshotDir string) error {
	for _, p := range destPaths {
		if p == "" {
			continue
		}
		content, ok := f.files[p]
		if !ok {
			continue
		}
		if f.snapshots[snapshotDir] == nil {
			f.snapshots[snapshotDir] = map[string]string{}
		}
		base := path.Base(p)
		if _, exists := f.snapshots[snapshotDir][base]; exists {
			continue
		}
		f.snapshots[snapshotDir][base] = content
	}
	return nil
}

func (f *fakeMedia) Restore(ctx context.Context, snapshotDir string, destPaths []string) error {
	snap := f.snapshots[snapshotDir]
	for _, p := range destPaths {
		if p == "" {
			continue
		}
		if content, ok := snap[path.Base(p)]; ok {
			f.files[p] = content
		}
	}
	return nil
}

type fakeCatalog struct {
	lecture *catalog.Lecture
	groupID int64
	nextID  int64

	series map[string]*catalog.Series

	createCalls    int
	supersedeCalls int
	overwriteCalls int
	createErr      error
	overwriteErr   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		lecture: &catalog.Lecture{ID: 1, Name: "QM1", LongName: "Quantum Mechanics 1"},
		groupID: 42,
		nextID:  100,
		series:  map[string]*catalog.Series{},
	}
}

func (f *fakeCatalog) GetLecture(ctx context.Context, lectureID int64) (*catalog.Lecture, error) {
	if f.lecture == nil || f.lecture.ID != lectureID {
		return nil, catalog.ErrLectureNotFound
	}
	return f.lecture, nil
}

func (f *fakeCatalog) WithinTx(ctx context.Context, fn func(tx catalog.Tx) error) error {
	backup := map[string]*catalog.Series{}
	for k, v := range f.series {
		clone := *v
		backup[k] = &clone
	}

	if err := fn(&fakeCatalogTx{c: f}); err != nil {
		f.series = backup
		return err
	}
	return nil
}

func (f *fakeCatalog) key(groupID int64, number int) string {
	return fmt.Sprintf("%d/%d", groupID, number)
}

// liveSeries returns the single live series at a number, or nil.
func (f *fakeCatalog) liveSeries(groupID int64, number int) *catalog.Series {
	s, ok := f.series[f.key(groupID, number)]
	if !ok || s.IsDeleted {
		return nil
	}
	return s
}

type fakeCatalogTx struct {
	c *fakeCatalog
}

func (t *fakeCatalogTx) FindOrCreateSemesterGroup(ctx context.Context, group catalog.SemesterGroup) (int64, error) {
	return t.c.groupID, nil
}

func (t *fakeCatalogTx) FindLiveSeries(ctx context.Context, groupID int64, number int) (*catalog.Series, error) {
	s := t.c.liveSeries(groupID, number)
	if s == nil {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (t *fakeCatalogTx) CreateSeries(ctx context.Context, series catalog.Series) (int64, error) {
	if t.c.createErr != nil {
		return 0, t.c.createErr
	}
	t.c.createCalls++
	if t.c.liveSeries(series.SemesterGroupID, series.Number) != nil {
		return 0, catalog.ErrSeriesConflict
	}
	t.c.nextID++
	series.ID = t.c.nextID
	t.c.series[t.c.key(series.SemesterGroupID, series.Number)] = &series
	return series.ID, nil
}

func (t *fakeCatalogTx) SupersedeSeries(ctx context.Context, oldID int64, series catalog.Series) (int64, error) {
	t.c.supersedeCalls++
	t.c.nextID++
	series.ID = t.c.nextID
	series.ReplacesID = &oldID
	t.c.series[t.c.key(series.SemesterGroupID, series.Number)] = &series
	return series.ID, nil
}

func (t *fakeCatalogTx) OverwriteSeries(ctx context.Context, seriesID int64, refs catalog.FileRefs) error {
	t.c.overwriteCalls++
	if t.c.overwriteErr != nil {
		return t.c.overwriteErr
	}
	for _, s := range t.c.series {
		if s.ID == seriesID {
			s.Files = refs
			return nil
		}
	}
	return fmt.Errorf("no series %d", seriesID)
}

type fakeRender struct {
	jobID  string
	err    error
	called bool
	gotIDs []int64
}

func (f *fakeRender) EnqueueSeriesRender(ctx context.Context, seriesIDs []int64) (string, error) {
	f.called = true
	f.gotIDs = seriesIDs
	if f.err != nil {
		return "", f.err
	}
	return f.jobID, nil
}
