package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/access"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"go.opentelemetry.io/otel/attribute"
)

// ExportDocument is the portable JSON form of an entry. Content is always
// plaintext.
type ExportDocument struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Category       string          `json:"category"`
	Classification string          `json:"classification"`
	Tags           []string        `json:"tags"`
	IsSensitive    bool            `json:"is_sensitive"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	File           *models.FileRef `json:"file,omitempty"`
	ExportedAt     time.Time       `json:"exported_at"`
	ExportedBy     string          `json:"exported_by"`
}

// Export renders the entry as an indented JSON document and records an
// export event.
func (s *EntryService) Export(ctx context.Context, p models.Principal, id string) (_ []byte, err error) {
	ctx, span := startSpan(ctx, "EntryService.Export",
		attribute.String(attrEntryID, id), attribute.String(attrPrincipalID, p.ID))
	defer func() { endSpan(span, err) }()

	e, err := s.load(ctx, p, id, access.ActionView)
	if err != nil {
		return nil, err
	}

	doc := ExportDocument{
		ID:             e.ID,
		OwnerID:        e.OwnerID,
		Title:          e.Title,
		Content:        s.protector.Reveal(e.Content, e.IsSensitive),
		Category:       string(e.Category),
		Classification: string(e.Classification),
		Tags:           models.NormalizeTags(e.Tags),
		IsSensitive:    e.IsSensitive,
		ExpirationDate: e.ExpirationDate,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		File:           e.File,
		ExportedAt:     s.clock(),
		ExportedBy:     p.ID,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	s.record(ctx, e.ID, p, models.AuditExport)
	return out, nil
}
