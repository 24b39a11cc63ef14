// Package services composes the access policy, content protection, audit
// trail and storage into the operations exposed over gRPC.
package services

import (
	"context"

	"github.com/ShubhamGupta2412/vaultboard/internal/audit"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// ContentProtector encrypts sensitive content at rest. *protect.Protector
// implements it.
type ContentProtector interface {
	Protect(plaintext string, sensitive bool) (string, error)
	Reveal(stored string, sensitive bool) string
}

// Recorder is the audit trail as seen by services. *audit.Trail implements it.
type Recorder interface {
	Record(ctx context.Context, entryID, principalID string, action models.AuditAction, origin audit.Origin)
	StatsFor(ctx context.Context, entryID string) (models.AccessStats, error)
	Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error)
}

// BlobStore keeps attachments. *blobstore.S3Store implements it.
type BlobStore interface {
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
	PublicURLFor(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
