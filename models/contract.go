package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus represents the lifecycle state of an uploaded contract
type ContractStatus string

const (
	ContractStatusUploaded ContractStatus = "uploaded"
	ContractStatusAssessed ContractStatus = "assessed"
	ContractStatusArchived ContractStatus = "archived"
)

// Contract represents an uploaded contract document
type Contract struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Status         ContractStatus `json:"status"`
	Filename       string         `json:"filename"`
	MimeType       string         `json:"mime_type"`
	Size           int64          `json:"size"`
	StoragePath    string         `json:"storage_path"`
	LatestReportID *uuid.UUID     `json:"latest_report_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
