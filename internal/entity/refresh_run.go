package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// RefreshRunStatus is the lifecycle state of a scheduled refresh.
type RefreshRunStatus string

const (
	RefreshRunRunning   RefreshRunStatus = "running"
	RefreshRunCompleted RefreshRunStatus = "completed"
	RefreshRunFailed    RefreshRunStatus = "failed"
)

// RefreshRun records one execution of the refresh scheduler.
type RefreshRun struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Status       RefreshRunStatus            `gorm:"type:varchar(20);not null;index" json:"status"`
	Topics       datatypes.JSONSlice[string] `json:"topics"`
	FailedTopics datatypes.JSONSlice[string] `json:"failed_topics"`
	Stored       int                         `json:"stored"`
	Purged       int64                       `json:"purged"`
	DigestParts  int                         `json:"digest_parts"`
	StartedAt    time.Time                   `gorm:"not null;index" json:"started_at"`
	CompletedAt  sql.NullTime                `json:"completed_at"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the RefreshRun model.
func (RefreshRun) TableName() string {
	return "refresh_runs"
}
