package winery

import (
	"context"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
)

// Repository manages winery persistence.
// [DIP] service/winery depends on this interface, not on a concrete document store.
// [LSP] Cosmos, Postgres and in-memory implementations are all valid substitutes.
type Repository interface {
	// Create stores w. It returns a *domainwinery.AlreadyExistsError when a
	// winery with the same normalized name is already stored.
	Create(ctx context.Context, w domainwinery.Winery) (domainwinery.Winery, error)

	// GetByID returns a *domainwinery.NotFoundError when no winery has the id.
	GetByID(ctx context.Context, id string) (domainwinery.Winery, error)

	// ExistsByName reports whether a winery with the same normalized name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)
}
