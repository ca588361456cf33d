package repositories

import (
	"context"

	"github.com/yoockh/brdextractor/internal/models"
)

// ResultRepository keeps finished pipeline results long enough for the
// result page and the download link. Get returns utils.ErrNotFound for
// unknown or expired ids.
type ResultRepository interface {
	Save(ctx context.Context, r *models.Result) error
	Get(ctx context.Context, id string) (*models.Result, error)
}
