package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldmine/exercise-archive/internal/domain/catalog"
)

const pgUniqueViolation = "23505"

// CatalogRepository implements the catalog store on Postgres. All series
// mutations run inside one transaction per commit; the partial unique index
// uniq_active_series_number is the backstop against two imports racing to
// create the same live series.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetLecture(ctx context.Context, lectureID int64) (*catalog.Lecture, error) {
	var lecture catalog.Lecture
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, long_name FROM lectures WHERE id = $1 AND NOT is_deleted`,
		lectureID,
	).Scan(&lecture.ID, &lecture.Name, &lecture.LongName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrLectureNotFound
		}
		return nil, fmt.Errorf("get lecture: %w", err)
	}
	return &lecture, nil
}

func (r *CatalogRepository) WithinTx(ctx context.Context, fn func(tx catalog.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&catalogTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog tx: %w", err)
	}
	return nil
}

type catalogTx struct {
	tx pgx.Tx
}

func (t *catalogTx) FindOrCreateSemesterGroup(ctx context.Context, group catalog.SemesterGroup) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO semester_groups (lecture_id, year, semester, professors, assistants, fs_path, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
ON CONFLICT (lecture_id, year, semester) WHERE NOT is_deleted DO UPDATE
  SET professors = EXCLUDED.professors,
      assistants = EXCLUDED.assistants,
      fs_path = EXCLUDED.fs_path,
      updated_at = NOW()
RETURNING id
`, group.LectureID, group.Year, group.Semester, group.Professors, group.Assistants, group.FSPath).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("find or create semester group: %w", err)
	}
	return id, nil
}

func (t *catalogTx) FindLiveSeries(ctx context.Context, groupID int64, number int) (*catalog.Series, error) {
	var s catalog.Series
	err := t.tx.QueryRow(ctx, `
SELECT id, semester_group_id, number, title, tex_file, pdf_file, solution_file, replaces_id, superseded_by_id
FROM series
WHERE semester_group_id = $1 AND number = $2 AND NOT is_deleted
FOR UPDATE
`, groupID, number).Scan(
		&s.ID, &s.SemesterGroupID, &s.Number, &s.Title,
		&s.Files.TexFile, &s.Files.PDFFile, &s.Files.SolutionFile,
		&s.ReplacesID, &s.SupersededByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find live series: %w", err)
	}
	return &s, nil
}

func (t *catalogTx) CreateSeries(ctx context.Context, series catalog.Series) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO series (semester_group_id, number, title, tex_file, pdf_file, solution_file, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
RETURNING id
`, series.SemesterGroupID, series.Number, series.Title,
		series.Files.TexFile, series.Files.PDFFile, series.Files.SolutionFile).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, catalog.ErrSeriesConflict
		}
		return 0, fmt.Errorf("create series: %w", err)
	}
	return id, nil
}

// SupersedeSeries soft-deletes the old row before inserting the replacement
// so the partial unique index never sees two live rows at the same number.
func (t *catalogTx) SupersedeSeries(ctx context.Context, oldID int64, series catalog.Series) (int64, error) {
	if _, err := t.tx.Exec(ctx, `
UPDATE series SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1
`, oldID); err != nil {
		return 0, fmt.Errorf("soft-delete superseded series: %w", err)
	}

	var newID int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO series (semester_group_id, number, title, tex_file, pdf_file, solution_file, replaces_id, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
RETURNING id
`, series.SemesterGroupID, series.Number, series.Title,
		series.Files.TexFile, series.Files.PDFFile, series.Files.SolutionFile, oldID).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, catalog.ErrSeriesConflict
		}
		return 0, fmt.Errorf("insert superseding series: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `
UPDATE series SET superseded_by_id = $2, updated_at = NOW() WHERE id = $1
`, oldID, newID); err != nil {
		return 0, fmt.Errorf("link superseded series: %w", err)
	}

	return newID, nil
}

// OverwriteSeries keeps the row id stable but archives a soft-deleted clone
// of the prior state first, so an overwrite is still recoverable.
func (t *catalogTx) OverwriteSeries(ctx context.Context, seriesID int64, refs catalog.FileRefs) error {
	var old catalog.Series
	err := t.tx.QueryRow(ctx, `
SELECT semester_group_id, number, title, tex_file, pdf_file, solution_file
FROM series WHERE id = $1 AND NOT is_deleted
FOR UPDATE
`, seriesID).Scan(
		&old.SemesterGroupID, &old.Number, &old.Title,
		&old.Files.TexFile, &old.Files.PDFFile, &old.Files.SolutionFile,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("overwrite series %d: no live row", seriesID)
		}
		return fmt.Errorf("load series for overwrite: %w", err)
	}

	var cloneID int64
	err = t.tx.QueryRow(ctx, `
INSERT INTO series (semester_group_id, number, title, tex_file, pdf_file, solution_file, superseded_by_id, is_deleted, deleted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW(), NOW())
RETURNING id
`, old.SemesterGroupID, old.Number, old.Title,
		old.Files.TexFile, old.Files.PDFFile, old.Files.SolutionFile, seriesID).Scan(&cloneID)
	if err != nil {
		return fmt.Errorf("archive series snapshot: %w", err)
	}

	archived, err := json.Marshal(old.Files)
	if err != nil {
		return fmt.Errorf("marshal archived file refs: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `
UPDATE series
SET tex_file = $2, pdf_file = $3, solution_file = $4,
    archived_files = $5, replaces_id = $6, updated_at = NOW()
WHERE id = $1
`, seriesID, refs.TexFile, refs.PDFFile, refs.SolutionFile, archived, cloneID); err != nil {
		return fmt.Errorf("overwrite series file refs: %w", err)
	}

	return nil
}
