package memory

import (
	"context"
	"sync"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	portwinery "github.com/envino/wine-api/internal/port/winery"
)

var _ portwinery.Repository = (*WineryRepository)(nil)

// WineryRepository keeps wineries in process memory. Name uniqueness is
// enforced under the same lock as the insert.
type WineryRepository struct {
	mu     sync.RWMutex
	byID   map[string]domainwinery.Winery
	byName map[string]string
}

func NewWineryRepository() *WineryRepository {
	return &WineryRepository{
		byID:   make(map[string]domainwinery.Winery),
		byName: make(map[string]string),
	}
}

func (r *WineryRepository) Create(_ context.Context, w domainwinery.Winery) (domainwinery.Winery, error) {
	key := domainwinery.NormalizeName(w.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[key]; ok {
		return domainwinery.Winery{}, &domainwinery.AlreadyExistsError{Name: w.Name}
	}
	r.byID[w.ID] = w
	r.byName[key] = w.ID
	return w, nil
}

func (r *WineryRepository) GetByID(_ context.Context, id string) (domainwinery.Winery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	if !ok {
		return domainwinery.Winery{}, &domainwinery.NotFoundError{ID: id}
	}
	return w, nil
}

func (r *WineryRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[domainwinery.NormalizeName(name)]
	return ok, nil
}
