package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/goldmine/exercise-archive/internal/infrastructure/db/models"
)

// Migrate creates the schema and the partial unique indexes that back the
// soft-delete invariants: at most one live lecture per name, one live
// semester group per (lecture, year, semester) and one live series per
// (semester_group, number).
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.Lecture{},
		&models.SemesterGroup{},
		&models.Series{},
		&models.UploadJob{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_lecture_name
		   ON lectures (name) WHERE NOT is_deleted`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_semester_group
		   ON semester_groups (lecture_id, year, semester) WHERE NOT is_deleted`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_series_number
		   ON series (semester_group_id, number) WHERE NOT is_deleted`,
	}
	for _, stmt := range indexes {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
