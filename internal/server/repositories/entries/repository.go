package entries

import (
	"context"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Repository stores entries. Content is persisted exactly as given: the
// service layer protects it beforehand.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]*models.Entry, int, error)
	Touch(ctx context.Context, id string, at time.Time) error
	SetFile(ctx context.Context, id string, file *models.FileRef) error
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Entry, error)
}
