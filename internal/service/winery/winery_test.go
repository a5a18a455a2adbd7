package winery_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/envino/wine-api/internal/domain/event"
	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	"github.com/envino/wine-api/internal/mocks"
	winerysvc "github.com/envino/wine-api/internal/service/winery"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func newWinerySvc(t *testing.T) (*winerysvc.Service, *mocks.MockWineryRepository, *mocks.MockEventBus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWineryRepository(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	return winerysvc.NewService(repo, bus), repo, bus
}

type eventTypeMatcher struct{ want event.Type }

func (m eventTypeMatcher) Matches(x interface{}) bool {
	e, ok := x.(event.Event)
	return ok && e.Type == m.want
}
func (m eventTypeMatcher) String() string { return "event.Type=" + string(m.want) }

// passThrough returns whatever winery the service hands to the repository.
func passThrough(_ context.Context, w domainwinery.Winery) (domainwinery.Winery, error) {
	return w, nil
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	svc, repo, bus := newWinerySvc(t)

	gomock.InOrder(
		repo.EXPECT().ExistsByName(gomock.Any(), "DeLille Cellars").Return(false, nil),
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(passThrough),
	)
	bus.EXPECT().Publish(gomock.Any(), eventTypeMatcher{event.TypeWineryCreated}).Return(nil)

	got, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "  DeLille Cellars  "})
	require.NoError(t, err)
	assert.Equal(t, "DeLille Cellars", got.Name)
	assert.True(t, strings.HasPrefix(got.ID, domainwinery.IDPrefix))
	assert.False(t, got.CreatedAtUTC.IsZero())
	assert.Nil(t, got.UpdatedAtUTC)
}

func TestCreate_PublishFailureIsNotFatal(t *testing.T) {
	svc, repo, bus := newWinerySvc(t)

	repo.EXPECT().ExistsByName(gomock.Any(), gomock.Any()).Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(passThrough)
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("bus down"))

	_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Leonetti Cellar"})
	require.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	const (
		notEmpty = "'Name' must not be empty."
		tooShort = "'Name' must be at least 3 characters long (excluding whitespace)."
		tooLong  = "'Name' must be 256 characters or fewer (excluding whitespace)."
	)
	tests := []struct {
		name     string
		input    string
		wantMsgs []string
	}{
		{name: "empty", input: "", wantMsgs: []string{notEmpty, tooShort}},
		{name: "whitespace only", input: "   \t ", wantMsgs: []string{notEmpty, tooShort}},
		{name: "one char", input: "A", wantMsgs: []string{tooShort}},
		{name: "two chars", input: "AA", wantMsgs: []string{tooShort}},
		{name: "whitespace padded", input: "   AA   ", wantMsgs: []string{tooShort}},
		{name: "257 chars", input: strings.Repeat("A", 257), wantMsgs: []string{tooLong}},
		{name: "260 chars", input: strings.Repeat("A", 260), wantMsgs: []string{tooLong}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// No repository or bus calls are expected.
			svc, _, _ := newWinerySvc(t)

			_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: tc.input})
			require.Error(t, err)
			assert.ErrorIs(t, err, domainwinery.ErrValidation)

			var verr *domainwinery.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, map[string][]string{"name": tc.wantMsgs}, verr.Fields)
		})
	}
}

func TestCreate_Boundaries(t *testing.T) {
	for _, name := range []string{"AAA", strings.Repeat("A", 256), "  " + strings.Repeat("é", 256) + "  "} {
		svc, repo, bus := newWinerySvc(t)
		repo.EXPECT().ExistsByName(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(passThrough)
		bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: name})
		require.NoError(t, err, "name length %d", len(name))
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc, repo, _ := newWinerySvc(t)
	repo.EXPECT().ExistsByName(gomock.Any(), "Cayuse").Return(true, nil)

	_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Cayuse"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainwinery.ErrAlreadyExists)
	assert.EqualError(t, err, "There is already a winery named Cayuse")
}

func TestCreate_DuplicateDetectedOnInsert(t *testing.T) {
	svc, repo, _ := newWinerySvc(t)
	repo.EXPECT().ExistsByName(gomock.Any(), gomock.Any()).Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(domainwinery.Winery{}, &domainwinery.AlreadyExistsError{Name: "Cayuse"})

	_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Cayuse"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainwinery.ErrAlreadyExists)
}

func TestCreate_RepoErrors(t *testing.T) {
	t.Run("exists query fails", func(t *testing.T) {
		svc, repo, _ := newWinerySvc(t)
		repo.EXPECT().ExistsByName(gomock.Any(), gomock.Any()).Return(false, errors.New("db error"))

		_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Cayuse"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "check winery name")
	})

	t.Run("insert fails", func(t *testing.T) {
		svc, repo, _ := newWinerySvc(t)
		repo.EXPECT().ExistsByName(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainwinery.Winery{}, errors.New("db error"))

		_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Cayuse"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create winery")
	})
}

// ── GetByID ───────────────────────────────────────────────────────────────────

func TestGetByID_Success(t *testing.T) {
	svc, repo, _ := newWinerySvc(t)
	id := domainwinery.NewID()
	repo.EXPECT().GetByID(gomock.Any(), id).Return(domainwinery.Winery{ID: id, Name: "Quilceda Creek"}, nil)

	got, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestGetByID_InvalidID(t *testing.T) {
	svc, _, _ := newWinerySvc(t)

	_, err := svc.GetByID(context.Background(), "not-an-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainwinery.ErrInvalidID)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, repo, _ := newWinerySvc(t)
	id := domainwinery.NewID()
	repo.EXPECT().GetByID(gomock.Any(), id).Return(domainwinery.Winery{}, &domainwinery.NotFoundError{ID: id})

	_, err := svc.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainwinery.ErrNotFound)
	assert.Contains(t, err.Error(), "get winery")
}

// ── WithLocker ────────────────────────────────────────────────────────────────

func newLockedSvc(t *testing.T) (*winerysvc.Service, *mocks.MockWineryRepository, *mocks.MockEventBus, *mocks.MockLocker) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWineryRepository(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	locker := mocks.NewMockLocker(ctrl)
	return winerysvc.NewService(repo, bus, winerysvc.WithLocker(locker)), repo, bus, locker
}

func TestCreate_LocksOnNormalizedName(t *testing.T) {
	svc, repo, bus, locker := newLockedSvc(t)

	locker.EXPECT().WithLock(gomock.Any(), "winery-name:delille cellars", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, fn func(context.Context) error) error {
			return fn(ctx)
		})
	repo.EXPECT().ExistsByName(gomock.Any(), "DeLille Cellars").Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(passThrough)
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: " DeLille Cellars"})
	require.NoError(t, err)
	assert.Equal(t, "DeLille Cellars", got.Name)
}

func TestCreate_LockFailure(t *testing.T) {
	svc, _, _, locker := newLockedSvc(t)

	locker.EXPECT().WithLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("acquire advisory lock: conn closed"))

	_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "DeLille Cellars"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
}

func TestCreate_DuplicateUnderLock(t *testing.T) {
	svc, repo, _, locker := newLockedSvc(t)

	locker.EXPECT().WithLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, fn func(context.Context) error) error {
			return fn(ctx)
		})
	repo.EXPECT().ExistsByName(gomock.Any(), "Figgins").Return(true, nil)

	_, err := svc.Create(context.Background(), winerysvc.CreateInput{Name: "Figgins"})
	assert.ErrorIs(t, err, domainwinery.ErrAlreadyExists)
}
