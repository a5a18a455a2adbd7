// Package mocks holds gomock doubles for the port interfaces.
package mocks

//go:generate mockgen -destination=mock_winery.go -package=mocks -mock_names=Repository=MockWineryRepository github.com/envino/wine-api/internal/port/winery Repository
//go:generate mockgen -destination=mock_eventbus.go -package=mocks github.com/envino/wine-api/internal/port/eventbus EventBus
//go:generate mockgen -destination=mock_idempotency.go -package=mocks -mock_names=Store=MockIdempotencyStore github.com/envino/wine-api/internal/port/idempotency Store
//go:generate mockgen -destination=mock_locker.go -package=mocks github.com/envino/wine-api/internal/port/locker Locker
