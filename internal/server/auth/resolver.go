// Package auth issues and validates access tokens and resolves the
// principal behind a request.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// PrincipalSource loads principals by id.
type PrincipalSource interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}

// PrincipalCache is an optional read-through cache in front of the source.
// A miss is reported as (nil, nil).
type PrincipalCache interface {
	Get(ctx context.Context, id string) (*models.Principal, error)
	Set(ctx context.Context, p *models.Principal) error
}

type Resolver struct {
	source  PrincipalSource
	cache   PrincipalCache
	log     logging.Logger
	metrics *metrics.Metrics
}

// NewResolver builds a Resolver. cache may be nil.
func NewResolver(source PrincipalSource, cache PrincipalCache, log logging.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		source:  source,
		cache:   cache,
		log:     log.With("module", "auth"),
		metrics: m,
	}
}

// Current returns the principal authenticated on ctx. A missing or unknown
// principal is common.ErrorUnauthorized.
func (r *Resolver) Current(ctx context.Context) (models.Principal, error) {
	id, ok := PrincipalIDFrom(ctx)
	if !ok {
		return models.Principal{}, common.ErrorUnauthorized
	}

	if r.cache != nil {
		p, err := r.cache.Get(ctx, id)
		switch {
		case err != nil:
			r.metrics.IncCacheLookup("error")
			r.log.Warn(ctx, "principal cache get failed", "principal_id", id, "error", err)
		case p != nil:
			r.metrics.IncCacheLookup("hit")
			return *p, nil
		default:
			r.metrics.IncCacheLookup("miss")
		}
	}

	p, err := r.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Principal{}, common.ErrorUnauthorized
		}
		return models.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, p); err != nil {
			r.log.Warn(ctx, "principal cache set failed", "principal_id", id, "error", err)
		}
	}
	return *p, nil
}
