package accesslogs

import (
	"context"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Repository is the append-only access log. Rows disappear only through the
// entries foreign key cascade.
type Repository interface {
	Write(ctx context.Context, logs []models.AccessLog) error
	Stats(ctx context.Context, entryID string) (models.AccessStats, error)
	Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error)
}
