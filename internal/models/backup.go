package models

import "time"

// Backup is one snapshot file of the store.
type Backup struct {
	ID        uint   `gorm:"primaryKey"`
	FileName  string `gorm:"size:255;not null"`
	FilePath  string `gorm:"size:1024;not null"`
	Size      int64
	Encrypted bool
	SentTo    string `gorm:"size:64"`
	CreatedAt time.Time
}
