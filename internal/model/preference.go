package model

import "time"

// Preference keys persisted between form sessions.
const (
	PrefLastReporter = "lastReporter"
	PrefLastStation  = "lastStation"
)

// Preference is a persisted scalar setting of the form.
type Preference struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}
