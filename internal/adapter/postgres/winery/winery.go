package winery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	portwinery "github.com/envino/wine-api/internal/port/winery"
)

var _ portwinery.Repository = (*Repository)(nil)

const uniqueViolation = "23505"

// Repository stores each winery as a JSONB document keyed by id. The unique
// index on normalized_name closes the gap between ExistsByName and Create.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, w domainwinery.Winery) (domainwinery.Winery, error) {
	doc, err := json.Marshal(w)
	if err != nil {
		return domainwinery.Winery{}, fmt.Errorf("marshal winery: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO wineries (id, normalized_name, doc, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING doc`,
		w.ID, domainwinery.NormalizeName(w.Name), doc, w.CreatedAtUTC,
	)

	var out []byte
	if err := row.Scan(&out); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domainwinery.Winery{}, &domainwinery.AlreadyExistsError{Name: w.Name}
		}
		return domainwinery.Winery{}, fmt.Errorf("insert winery: %w", err)
	}
	return decode(out)
}

func (r *Repository) GetByID(ctx context.Context, id string) (domainwinery.Winery, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM wineries WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainwinery.Winery{}, &domainwinery.NotFoundError{ID: id}
		}
		return domainwinery.Winery{}, fmt.Errorf("get winery: %w", err)
	}
	return decode(doc)
}

func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wineries WHERE normalized_name = $1)`,
		domainwinery.NormalizeName(name),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query winery name: %w", err)
	}
	return exists, nil
}

func decode(doc []byte) (domainwinery.Winery, error) {
	var w domainwinery.Winery
	if err := json.Unmarshal(doc, &w); err != nil {
		return domainwinery.Winery{}, fmt.Errorf("unmarshal winery: %w", err)
	}
	return w, nil
}
