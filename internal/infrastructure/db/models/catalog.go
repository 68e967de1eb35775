package models

import "time"

type Lecture struct {
	ID            int64  `gorm:"primaryKey"`
	Name          string `gorm:"size:255;not null"`
	LongName      string `gorm:"size:1024;not null"`
	IsDeleted     bool   `gorm:"not null;default:false"`
	DeletedReason string `gorm:"size:255;not null;default:''"`
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Lecture) TableName() string {
	return "lectures"
}

type SemesterGroup struct {
	ID         int64  `gorm:"primaryKey"`
	LectureID  int64  `gorm:"index;not null"`
	Year       int    `gorm:"not null"`
	Semester   string `gorm:"size:2;not null"`
	Professors string `gorm:"type:text;not null;default:''"`
	Assistants string `gorm:"type:text;not null;default:''"`
	FSPath     string `gorm:"size:1024;not null;default:''"`
	IsDeleted  bool   `gorm:"not null;default:false"`
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (SemesterGroup) TableName() string {
	return "semester_groups"
}

type Series struct {
	ID              int64  `gorm:"primaryKey"`
	SemesterGroupID int64  `gorm:"index;not null"`
	Number          int    `gorm:"not null"`
	Title           string `gorm:"size:255;not null;default:''"`
	TexFile         string `gorm:"size:255;not null;default:''"`
	PDFFile         string `gorm:"column:pdf_file;size:255;not null;default:''"`
	SolutionFile    string `gorm:"size:255;not null;default:''"`
	ReplacesID      *int64 `gorm:"index"`
	SupersededByID  *int64 `gorm:"index"`
	ArchivedFiles   []byte `gorm:"type:jsonb"`
	IsDeleted       bool   `gorm:"not null;default:false"`
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Series) TableName() string {
	return "series"
}
