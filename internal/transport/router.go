package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/domain/event"
	"github.com/envino/wine-api/internal/logger"
	porteventbus "github.com/envino/wine-api/internal/port/eventbus"
	portidem "github.com/envino/wine-api/internal/port/idempotency"
	winerysvc "github.com/envino/wine-api/internal/service/winery"
	"github.com/envino/wine-api/internal/transport/problem"

	mcptransport "github.com/envino/wine-api/internal/transport/mcp"
	wineryhandler "github.com/envino/wine-api/internal/transport/winery"
	wshandler "github.com/envino/wine-api/internal/transport/ws"
)

// RouterConfig carries the settings NewRouter needs from the app config.
type RouterConfig struct {
	ServiceName     string
	Tracing         bool
	CORSOrigins     []string
	IdempotencyTTL  time.Duration
	IdempotencyKeys portidem.Store
}

// Router is the gin engine plus the websocket hub, which must be closed on shutdown.
type Router struct {
	*gin.Engine
	Hub *wshandler.Hub
}

func NewRouter(
	ctx context.Context,
	cfg RouterConfig,
	log *zap.Logger,
	winerySvc *winerysvc.Service,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
) (*Router, error) {
	r := gin.New()

	r.Use(RequestID())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(logger.GinMiddleware(log))
	r.Use(Recovery(log))
	r.Use(CORS(DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(Idempotency(cfg.IdempotencyKeys, cfg.IdempotencyTTL))

	r.NoRoute(func(c *gin.Context) {
		problem.Write(c, problem.New(http.StatusNotFound, "No route matches "+c.Request.URL.Path))
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	wineryhandler.Register(r.Group("/wineries"), winerySvc)

	if mcpServer != nil {
		r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	}

	hub := wshandler.NewHub(log)
	hub.Register(r.Group("/ws"))

	// Every event on the winery channel goes to websocket clients as-is;
	// event.Type lets clients filter.
	if _, err := eventBus.Subscribe(ctx, event.ChannelWinery, func(_ context.Context, e event.Event) {
		hub.Broadcast(e)
	}); err != nil {
		return nil, err
	}

	return &Router{Engine: r, Hub: hub}, nil
}
