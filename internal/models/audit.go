package models

import "time"

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID           int       `json:"id"`
	Action       string    `json:"action"`        // create, delete, accept, reject
	ResourceType string    `json:"resource_type"` // schedule, suggestion
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	AuditCreate = "create"
	AuditDelete = "delete"
	AuditAccept = "accept"
	AuditReject = "reject"

	ResourceSchedule   = "schedule"
	ResourceSuggestion = "suggestion"
)
