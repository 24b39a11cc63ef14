package principals

import (
	"context"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Repository stores principals. There is deliberately no update: a role is
// fixed at signup.
type Repository interface {
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	GetByEmail(ctx context.Context, email string) (*models.Principal, error)
}
