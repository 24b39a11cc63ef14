package models

import "time"

type AuditAction string

const (
	AuditView   AuditAction = "view"
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditExport AuditAction = "export"
)

// AuditActions lists every recorded action in display order.
var AuditActions = []AuditAction{AuditView, AuditCreate, AuditUpdate, AuditDelete, AuditExport}

// AccessLog is an immutable audit record. PrincipalID is nil for
// system-initiated actions.
type AccessLog struct {
	ID          string      `json:"id"`
	EntryID     string      `json:"entry_id"`
	PrincipalID *string     `json:"principal_id,omitempty"`
	Action      AuditAction `json:"action"`
	CreatedAt   time.Time   `json:"created_at"`
	Origin      string      `json:"origin,omitempty"`
	Client      string      `json:"client,omitempty"`
}

// AccessStats aggregates the access log of one entry. LastAccessAt is nil
// when the entry has no events.
type AccessStats struct {
	EntryID            string              `json:"entry_id"`
	Total              int                 `json:"total"`
	ByAction           map[AuditAction]int `json:"by_action"`
	DistinctPrincipals int                 `json:"distinct_principals"`
	LastAccessAt       *time.Time          `json:"last_access_at,omitempty"`
}
