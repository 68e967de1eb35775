package models

import "time"

type UploadJob struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	LectureID      int64  `gorm:"index;not null"`
	Year           int    `gorm:"not null"`
	Semester       string `gorm:"size:2;not null"`
	Professors     string `gorm:"type:text;not null;default:''"`
	Assistants     string `gorm:"type:text;not null;default:''"`
	FSPath         string `gorm:"size:1024;not null;default:''"`
	SourceFilename string `gorm:"size:255;not null;default:''"`
	UploadDir      string `gorm:"size:1024;not null;default:''"`
	Status         string `gorm:"size:20;not null"`
	ReportJSON     []byte `gorm:"type:jsonb"`
	ErrorMessage   string `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UploadJob) TableName() string {
	return "upload_jobs"
}
