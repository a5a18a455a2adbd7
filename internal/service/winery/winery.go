package winery

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/domain/event"
	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	"github.com/envino/wine-api/internal/logger"
	portbus "github.com/envino/wine-api/internal/port/eventbus"
	portlocker "github.com/envino/wine-api/internal/port/locker"
	portwinery "github.com/envino/wine-api/internal/port/winery"
)

// Service owns winery creation and lookup.
// [SRP] Validation, id assignment and event publication; persistence is the repository's.
// [DIP] Depends on the Repository and EventBus ports only.
type Service struct {
	repo      portwinery.Repository
	bus       portbus.EventBus
	locker    portlocker.Locker
	validator *validator.Validate
}

type Option func(*Service)

// WithLocker serializes the duplicate-name check and insert per normalized
// name. Without it the two steps can interleave across concurrent requests.
func WithLocker(l portlocker.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func NewService(repo portwinery.Repository, bus portbus.EventBus, opts ...Option) *Service {
	s := &Service{repo: repo, bus: bus, validator: newValidator()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, rejects duplicate names and stores a new winery.
func (s *Service) Create(ctx context.Context, in CreateInput) (domainwinery.Winery, error) {
	if err := s.validate(in); err != nil {
		return domainwinery.Winery{}, err
	}

	w := domainwinery.New(in.Name)

	var created domainwinery.Winery
	err := s.withNameLock(ctx, w.Name, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByName(ctx, w.Name)
		if err != nil {
			return fmt.Errorf("check winery name: %w", err)
		}
		if exists {
			return &domainwinery.AlreadyExistsError{Name: w.Name}
		}

		created, err = s.repo.Create(ctx, w)
		if err != nil {
			return fmt.Errorf("create winery: %w", err)
		}
		return nil
	})
	if err != nil {
		return domainwinery.Winery{}, err
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeWineryCreated, created.ID)); err != nil {
		logger.FromContext(ctx).Error("failed to publish WineryCreated event",
			zap.String("winery_id", created.ID), zap.Error(err))
	}

	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domainwinery.Winery, error) {
	id, err := domainwinery.ParseID(id)
	if err != nil {
		return domainwinery.Winery{}, err
	}

	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainwinery.Winery{}, fmt.Errorf("get winery: %w", err)
	}
	return w, nil
}

func (s *Service) withNameLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, "winery-name:"+domainwinery.NormalizeName(name), fn)
}
