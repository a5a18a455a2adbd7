package winery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/adapter/cosmos"
	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	"github.com/envino/wine-api/internal/logger"
	portwinery "github.com/envino/wine-api/internal/port/winery"
)

var _ portwinery.Repository = (*Repository)(nil)

// ContainerID is the container holding winery documents.
const ContainerID = "wineries"

const existsByNameQuery = `SELECT c.id FROM c WHERE c.normalizedName = @name`

// document is the stored shape. normalizedName backs the uniqueness query
// and never leaves this package.
type document struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	NormalizedName string     `json:"normalizedName"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	UpdatedAtUTC   *time.Time `json:"updatedAtUtc"`
}

func toDocument(w domainwinery.Winery) document {
	return document{
		ID:             w.ID,
		Name:           w.Name,
		NormalizedName: domainwinery.NormalizeName(w.Name),
		CreatedAtUTC:   w.CreatedAtUTC,
		UpdatedAtUTC:   w.UpdatedAtUTC,
	}
}

func (d document) winery() domainwinery.Winery {
	return domainwinery.Winery{
		ID:           d.ID,
		Name:         d.Name,
		CreatedAtUTC: d.CreatedAtUTC,
		UpdatedAtUTC: d.UpdatedAtUTC,
	}
}

// Repository implements port/winery.Repository on a Cosmos container
// partitioned by id.
type Repository struct {
	container *azcosmos.ContainerClient
}

func New(container *azcosmos.ContainerClient) *Repository {
	return &Repository{container: container}
}

// Create inserts w. Cosmos has no cross-partition unique constraint, so the
// caller is expected to have run ExistsByName first; an id collision still
// surfaces as AlreadyExistsError.
func (r *Repository) Create(ctx context.Context, w domainwinery.Winery) (domainwinery.Winery, error) {
	body, err := json.Marshal(toDocument(w))
	if err != nil {
		return domainwinery.Winery{}, fmt.Errorf("marshal winery: %w", err)
	}

	resp, err := r.container.CreateItem(ctx, azcosmos.NewPartitionKeyString(w.ID), body, nil)
	if err != nil {
		if cosmos.IsStatus(err, http.StatusConflict) {
			return domainwinery.Winery{}, &domainwinery.AlreadyExistsError{Name: w.Name}
		}
		return domainwinery.Winery{}, fmt.Errorf("create winery item: %w", err)
	}

	logger.FromContext(ctx).Info("winery created",
		zap.String("winery_id", w.ID),
		zap.Int("status_code", statusCode(resp.RawResponse)),
		zap.Float32("request_charge", resp.RequestCharge),
	)
	return w, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (domainwinery.Winery, error) {
	resp, err := r.container.ReadItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	if err != nil {
		if cosmos.IsStatus(err, http.StatusNotFound) {
			return domainwinery.Winery{}, &domainwinery.NotFoundError{ID: id}
		}
		return domainwinery.Winery{}, fmt.Errorf("read winery item: %w", err)
	}

	var doc document
	if err := json.Unmarshal(resp.Value, &doc); err != nil {
		return domainwinery.Winery{}, fmt.Errorf("unmarshal winery: %w", err)
	}

	logger.FromContext(ctx).Debug("winery read",
		zap.String("winery_id", id),
		zap.Float32("request_charge", resp.RequestCharge),
	)
	return doc.winery(), nil
}

// ExistsByName runs a cross-partition query on normalizedName and stops at
// the first page that returns a match.
func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	pager := r.container.NewQueryItemsPager(existsByNameQuery, azcosmos.NewPartitionKey(), &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{Name: "@name", Value: domainwinery.NormalizeName(name)},
		},
	})

	var charge float32
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("query winery name: %w", err)
		}
		charge += page.RequestCharge
		if len(page.Items) > 0 {
			logger.FromContext(ctx).Debug("winery name taken", zap.Float32("request_charge", charge))
			return true, nil
		}
	}
	logger.FromContext(ctx).Debug("winery name free", zap.Float32("request_charge", charge))
	return false, nil
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
