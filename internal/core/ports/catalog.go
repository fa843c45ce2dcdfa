package ports

import (
	"context"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

// CatalogStore loads and saves the festival lineup. Order is significant.
type CatalogStore interface {
	Load(ctx context.Context) ([]domain.CandidateAct, error)
	Save(ctx context.Context, acts []domain.CandidateAct) error
}
