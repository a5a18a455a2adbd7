package wire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/adapter/cosmos"
	cosmoswinery "github.com/envino/wine-api/internal/adapter/cosmos/winery"
	"github.com/envino/wine-api/internal/adapter/memory"
	pgdb "github.com/envino/wine-api/internal/adapter/postgres"
	pgeventbus "github.com/envino/wine-api/internal/adapter/postgres/eventbus"
	pgidem "github.com/envino/wine-api/internal/adapter/postgres/idempotency"
	pglocker "github.com/envino/wine-api/internal/adapter/postgres/locker"
	pgwinery "github.com/envino/wine-api/internal/adapter/postgres/winery"
	redisidem "github.com/envino/wine-api/internal/adapter/redis/idempotency"
	"github.com/envino/wine-api/internal/config"
	porteventbus "github.com/envino/wine-api/internal/port/eventbus"
	portidem "github.com/envino/wine-api/internal/port/idempotency"
	portlocker "github.com/envino/wine-api/internal/port/locker"
	portwinery "github.com/envino/wine-api/internal/port/winery"
	winerysvc "github.com/envino/wine-api/internal/service/winery"
	"github.com/envino/wine-api/internal/telemetry"
	"github.com/envino/wine-api/internal/transport"
	mcptransport "github.com/envino/wine-api/internal/transport/mcp"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Server    *http.Server
	Router    *transport.Router
	WinerySvc *winerysvc.Service
	MCPServer *mcptransport.Server
	Tracer    *telemetry.TracerProvider

	log    *zap.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client
	cancel context.CancelFunc
}

// stores groups the driver-dependent adapters.
type stores struct {
	wineries portwinery.Repository
	events   porteventbus.EventBus
	locker   portlocker.Locker
	pool     *pgxpool.Pool
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{log: log}
	ctx, app.cancel = context.WithCancel(ctx)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, app.fail(err)
	}
	app.Tracer = tracer

	// ── Adapters ─────────────────────────────────────────────────────────────
	st, err := buildStores(ctx, cfg, log)
	if err != nil {
		return nil, app.fail(err)
	}
	app.pool = st.pool

	idemStore, err := app.buildIdempotencyStore(ctx, cfg, st.pool)
	if err != nil {
		return nil, app.fail(err)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	app.WinerySvc = winerysvc.NewService(st.wineries, st.events, winerysvc.WithLocker(st.locker))

	if cfg.MCP.Enabled {
		app.MCPServer = mcptransport.New(app.WinerySvc, log)
	}

	// ── Transport ─────────────────────────────────────────────────────────────
	router, err := transport.NewRouter(ctx, transport.RouterConfig{
		ServiceName:     cfg.Telemetry.ServiceName,
		Tracing:         tracer.Enabled(),
		CORSOrigins:     cfg.HTTP.CORSAllowOrigins,
		IdempotencyTTL:  cfg.Idempotency.TTL,
		IdempotencyKeys: idemStore,
	}, log, app.WinerySvc, app.MCPServer, st.events)
	if err != nil {
		return nil, app.fail(fmt.Errorf("building router: %w", err))
	}
	app.Router = router

	app.Server = &http.Server{
		Addr:         net.JoinHostPort("", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	log.Info("application wired",
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("idempotency", cfg.Idempotency.Driver),
		zap.Bool("mcp", cfg.MCP.Enabled),
	)
	return app, nil
}

func buildStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (stores, error) {
	switch cfg.Store.Driver {
	case config.DriverCosmos:
		client, err := cosmos.Connect(cosmos.Options{
			ConnectionString: cfg.Cosmos.ConnectionString,
			UseEmulator:      cfg.Cosmos.UseEmulator,
		})
		if err != nil {
			return stores{}, err
		}
		if cfg.Cosmos.ProvisionOnStart {
			if err := cosmos.Provision(ctx, client, cfg.Cosmos.Database, cfg.Cosmos.Throughput, []string{cfg.Cosmos.Container}, log); err != nil {
				return stores{}, err
			}
		}
		container, err := client.NewContainer(cfg.Cosmos.Database, cfg.Cosmos.Container)
		if err != nil {
			return stores{}, fmt.Errorf("opening cosmos container: %w", err)
		}
		return stores{
			wineries: cosmoswinery.New(container),
			events:   memory.NewEventBus(),
			locker:   memory.NewLocker(),
		}, nil

	case config.DriverPostgres:
		if cfg.Database.MigrateOnStart {
			if err := pgdb.Migrate(cfg.Database.URL, log); err != nil {
				return stores{}, err
			}
		}
		pool, err := pgdb.Connect(ctx, cfg.Database.URL, cfg.App.Name, log)
		if err != nil {
			return stores{}, fmt.Errorf("connecting to database: %w", err)
		}
		return stores{
			wineries: pgwinery.New(pool),
			events:   pgeventbus.New(pool, log),
			locker:   pglocker.New(pool),
			pool:     pool,
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory winery store; data is lost on restart")
		return stores{
			wineries: memory.NewWineryRepository(),
			events:   memory.NewEventBus(),
			locker:   memory.NewLocker(),
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *App) buildIdempotencyStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (portidem.Store, error) {
	switch cfg.Idempotency.Driver {
	case config.DriverRedis:
		addr := net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port))
		client, err := redisidem.Connect(ctx, addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisidem.New(client, cfg.App.Name+":idempotency:"), nil
	case config.DriverPostgres:
		if pool == nil {
			return nil, errors.New("postgres idempotency store requires the postgres winery store")
		}
		return pgidem.New(pool), nil
	default:
		return memory.NewCache(), nil
	}
}

// Shutdown stops accepting requests, then releases every resource Build acquired.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if a.MCPServer != nil {
		if err := a.MCPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mcp server: %w", err))
		}
	}
	if a.Router != nil {
		a.Router.Hub.Close()
	}
	errs = append(errs, a.release(ctx))
	return errors.Join(errs...)
}

// release cancels subscriptions and closes pools and clients.
func (a *App) release(ctx context.Context) error {
	var errs []error
	if a.cancel != nil {
		a.cancel()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.Tracer != nil {
		if err := a.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fail releases partially built resources and returns err.
func (a *App) fail(err error) error {
	if relErr := a.release(context.Background()); relErr != nil {
		a.log.Warn("releasing resources after failed build", zap.Error(relErr))
	}
	return err
}

// Provision prepares the configured store: it creates the Cosmos database and
// container, or applies Postgres migrations. The memory store needs nothing.
func Provision(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	switch cfg.Store.Driver {
	case config.DriverCosmos:
		client, err := cosmos.Connect(cosmos.Options{
			ConnectionString: cfg.Cosmos.ConnectionString,
			UseEmulator:      cfg.Cosmos.UseEmulator,
		})
		if err != nil {
			return err
		}
		return cosmos.Provision(ctx, client, cfg.Cosmos.Database, cfg.Cosmos.Throughput, []string{cfg.Cosmos.Container}, log)
	case config.DriverPostgres:
		return pgdb.Migrate(cfg.Database.URL, log)
	default:
		log.Info("nothing to provision", zap.String("store", cfg.Store.Driver))
		return nil
	}
}
