package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	"github.com/envino/wine-api/internal/logger"
	winerysvc "github.com/envino/wine-api/internal/service/winery"
)

// RegisterTools registers the winery tools on s.
func RegisterTools(s *mcpserver.MCPServer, winerySvc *winerysvc.Service) {
	s.AddTool(mcpmcp.NewTool("create_winery",
		mcpmcp.WithDescription("Create a winery. Names are trimmed, must be 3 to 256 characters, and must be unique ignoring case. Returns the stored winery including its id."),
		mcpmcp.WithString("name", mcpmcp.Required(), mcpmcp.Description("Winery name")),
	), createWineryHandler(winerySvc))

	s.AddTool(mcpmcp.NewTool("get_winery",
		mcpmcp.WithDescription("Fetch a winery by id."),
		mcpmcp.WithString("winery_id", mcpmcp.Required(), mcpmcp.Description("Winery id, e.g. ry_0195...")),
	), getWineryHandler(winerySvc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

func createWineryHandler(winerySvc *winerysvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		name := mcpmcp.ParseString(req, "name", "")

		w, err := winerySvc.Create(ctx, winerysvc.CreateInput{Name: name})
		if err != nil {
			return toolError(ctx, err), nil
		}
		return jsonResult(w)
	}
}

func getWineryHandler(winerySvc *winerysvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := mcpmcp.ParseString(req, "winery_id", "")

		w, err := winerySvc.GetByID(ctx, id)
		if err != nil {
			return toolError(ctx, err), nil
		}
		return jsonResult(w)
	}
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}

// toolError renders domain errors as tool errors the model can act on.
// Anything unclassified is logged and reported generically.
func toolError(ctx context.Context, err error) *mcpmcp.CallToolResult {
	var validationErr *domainwinery.ValidationError
	var existsErr *domainwinery.AlreadyExistsError
	var notFoundErr *domainwinery.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		var msgs []string
		for _, field := range slices.Sorted(maps.Keys(validationErr.Fields)) {
			msgs = append(msgs, validationErr.Fields[field]...)
		}
		return mcpmcp.NewToolResultError("error: " + strings.Join(msgs, " "))
	case errors.As(err, &existsErr):
		return mcpmcp.NewToolResultError("error: " + existsErr.Error())
	case errors.As(err, &notFoundErr):
		return mcpmcp.NewToolResultError("error: " + notFoundErr.Error())
	case errors.Is(err, domainwinery.ErrInvalidID):
		return mcpmcp.NewToolResultError("error: invalid winery_id")
	default:
		logger.FromContext(ctx).Error("mcp tool failed", zap.Error(err))
		return mcpmcp.NewToolResultError("error: internal error, please try again")
	}
}
