package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	winerysvc "github.com/envino/wine-api/internal/service/winery"
)

const (
	serverName    = "wine-api"
	serverVersion = "1.0.0"
)

// Server wraps the mcp-go MCPServer and its streamable HTTP transport.
// Tools are registered in tools.go.
type Server struct {
	mcpSrv  *mcpserver.MCPServer
	httpSrv *mcpserver.StreamableHTTPServer
	log     *zap.Logger
}

func New(winerySvc *winerysvc.Service, log *zap.Logger) *Server {
	s := &Server{log: log}

	hooks := &mcpserver.Hooks{}
	hooks.OnRegisterSession = append(hooks.OnRegisterSession, s.onSessionOpen)
	hooks.OnUnregisterSession = append(hooks.OnUnregisterSession, s.onSessionClose)

	s.mcpSrv = mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithHooks(hooks),
		mcpserver.WithRecovery(),
	)

	RegisterTools(s.mcpSrv, winerySvc)

	s.httpSrv = mcpserver.NewStreamableHTTPServer(s.mcpSrv)
	return s
}

// Handler serves the streamable HTTP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

// Shutdown closes open sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) onSessionOpen(_ context.Context, session mcpserver.ClientSession) {
	s.log.Info("mcp session opened", zap.String("session_id", session.SessionID()))
}

func (s *Server) onSessionClose(_ context.Context, session mcpserver.ClientSession) {
	s.log.Info("mcp session closed", zap.String("session_id", session.SessionID()))
}
