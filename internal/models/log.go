package models

import "time"

// AuditLog records gateway calls against the HTTP API.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	Gateway   string `gorm:"size:64;index"`
	ChatUser  string `gorm:"size:64;index"`
	Method    string `gorm:"size:16"`
	PathEnc   string `gorm:"size:1024"` // encrypted request path
	ActionEnc string `gorm:"size:4096"` // encrypted method + path + body digest
	Status    int
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
