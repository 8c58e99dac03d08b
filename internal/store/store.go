// Package store defines the persistence port the engine reads and writes
// room aggregates through.
package store

import (
	"context"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

var (
	ErrNotFound  = apperr.New(apperr.CodeGameNotFound, "game not found")
	ErrDuplicate = apperr.New(apperr.CodeDuplicateRoom, "room already exists")
)

// Store persists one aggregate per room id. Update replaces the stored
// aggregate with a fully validated one; it never merges partial objects.
type Store interface {
	Create(ctx context.Context, g *models.Game) (*models.Game, error)
	Get(ctx context.Context, roomID string) (*models.Game, error)
	Update(ctx context.Context, g *models.Game) (*models.Game, error)
	Delete(ctx context.Context, roomID string) (bool, error)
	ListAll(ctx context.Context) ([]*models.Game, error)
}

// Unavailable wraps a backend failure so callers can tell it apart from
// rule violations.
func Unavailable(op string, err error) error {
	return apperr.Wrap(apperr.CodeStoreUnavailable, op, err)
}
