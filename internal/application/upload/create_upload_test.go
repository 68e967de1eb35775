package upload_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/goldmine/exercise-archive/internal/application/upload"
	"github.com/goldmine/exercise-archive/internal/archive"
	"github.com/goldmine/exercise-archive/internal/classify"
	domain "github.com/goldmine/exercise-archive/internal/domain/upload"
)

func cleanListing() archive.Listing {
	return archive.Listing{
		Root: "QM1_2024HS",
		Files: []archive.FileInfo{
			{Path: "Series 1/ex1.pdf", Size: 10},
			{Path: "Series 1/ex1.tex", Size: 8},
			{Path: "Series 1/sol1.pdf", Size: 11},
		},
	}
}

func TestCreateUploadSuccess(t *testing.T) {
	t.Parallel()

	repo := newFakeJobRepo()
	stager := &fakeStager{listing: cleanListing()}
	cat := newFakeCatalog()

	uc := app.NewCreateUpload(repo, stager, classify.New(classify.DefaultTokens()), cat)

	out, err := uc.Execute(context.Background(), app.CreateUploadInput{
		Archive:   []byte("zip-bytes"),
		Filename:  "qm1.zip",
		LectureID: 1,
		Year:      2024,
		Semester:  "hs",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "validated", out.Status)
	assert.Equal(t, "QM1/2024HS", out.FSPath)
	require.Len(t, out.Report.Series, 1)
	assert.Equal(t, 1, out.Report.Series[0].Number)
	assert.Equal(t, "Series 1/ex1.pdf", out.Report.Series[0].PDFFile)
	assert.Empty(t, out.Report.Warnings)

	job, err := repo.Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, job.Status)
	assert.Equal(t, "HS", job.Semester)
	assert.Equal(t, "qm1.zip", job.SourceFilename)
	require.NotNil(t, job.Report)
}

func TestCreateUploadExplicitFSPath(t *testing.T) {
	t.Parallel()

	uc := app.NewCreateUpload(newFakeJobRepo(), &fakeStager{listing: cleanListing()}, classify.New(classify.DefaultTokens()), newFakeCatalog())

	out, err := uc.Execute(context.Background(), app.CreateUploadInput{
		Archive:   []byte("zip-bytes"),
		LectureID: 1,
		Year:      2024,
		Semester:  "FS",
		FSPath:    "custom/path",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom/path", out.FSPath)
}

func TestCreateUploadMissingArchive(t *testing.T) {
	t.Parallel()

	uc := app.NewCreateUpload(newFakeJobRepo(), &fakeStager{}, classify.New(classify.DefaultTokens()), newFakeCatalog())

	_, err := uc.Execute(context.Background(), app.CreateUploadInput{LectureID: 1, Year: 2024, Semester: "HS"})
	require.ErrorIs(t, err, app.ErrMissingArchive)
}

func TestCreateUploadMissingMetadata(t *testing.T) {
	t.Parallel()

	uc := app.NewCreateUpload(newFakeJobRepo(), &fakeStager{}, classify.New(classify.DefaultTokens()), newFakeCatalog())

	_, err := uc.Execute(context.Background(), app.CreateUploadInput{Archive: []byte("z"), Semester: "HS"})
	require.ErrorIs(t, err, app.ErrMissingMetadata)
}

func TestCreateUploadInvalidSemester(t *testing.T) {
	t.Parallel()

	uc := app.NewCreateUpload(newFakeJobRepo(), &fakeStager{}, classify.New(classify.DefaultTokens()), newFakeCatalog())

	_, err := uc.Execute(context.Background(), app.CreateUploadInput{
		Archive: []byte("z"), LectureID: 1, Year: 2024, Semester: "WS",
	})
	require.ErrorIs(t, err, app.ErrInvalidSemester)
}

func TestCreateUploadLectureNotFound(t *testing.T) {
	t.Parallel()

	uc := app.NewCreateUpload(newFakeJobRepo(), &fakeStager{}, classify.New(classify.DefaultTokens()), newFakeCatalog())

	_, err := uc.Execute(context.Background(), app.CreateUploadInput{
		Archive: []byte("z"), LectureID: 99, Year: 2024, Semester: "HS",
	})
	require.ErrorIs(t, err, app.ErrLectureNotFound)
}

func TestCreateUploadUnsafeArchiveCreatesNoJob(t *testing.T) {
	t.Parallel()

	repo := newFakeJobRepo()
	stager := &fakeStager{stageErr: archive.ErrUnsafeArchivePath}

	uc := app.NewCreateUpload(repo, stager, classify.New(classify.DefaultTokens()), newFakeCatalog())

	_, err := uc.Execute(context.Background(), app.CreateUploadInput{
		Archive: []byte("z"), LectureID: 1, Year: 2024, Semester: "HS",
	})
	require.ErrorIs(t, err, archive.ErrUnsafeArchivePath)
	assert.Empty(t, repo.jobs)
	assert.Len(t, stager.removed, 1)
}

func TestGetUpload(t *testing.T) {
	t.Parallel()

	job := validatedJob()
	repo := newFakeJobRepo(job)

	uc := app.NewGetUpload(repo)

	out, err := uc.Execute(context.Background(), app.GetUploadInput{JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, job.ID, out.ID)
	assert.Equal(t, "validated", out.Status)
	require.Len(t, out.Report.Series, 1)

	_, err = uc.Execute(context.Background(), app.GetUploadInput{JobID: "missing"})
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestDeleteUpload(t *testing.T) {
	t.Parallel()

	job := validatedJob()
	repo := newFakeJobRepo(job)
	stager := &fakeStager{}

	uc := app.NewDeleteUpload(repo, stager)

	err := uc.Execute(context.Background(), app.DeleteUploadInput{JobID: job.ID})
	require.NoError(t, err)
	assert.Empty(t, repo.jobs)
	assert.Equal(t, []string{job.ID}, stager.removed)
}

func TestDeleteUploadRefusesImportedJob(t *testing.T) {
	t.Parallel()

	job := validatedJob()
	job.Status = domain.StatusImported
	repo := newFakeJobRepo(job)

	uc := app.NewDeleteUpload(repo, &fakeStager{})

	err := uc.Execute(context.Background(), app.DeleteUploadInput{JobID: job.ID})
	require.ErrorIs(t, err, domain.ErrNotDeletable)
}
