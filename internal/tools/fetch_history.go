package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/artifact"
	"github.com/tolmachov/mcp-telegram/internal/config"
	"github.com/tolmachov/mcp-telegram/internal/cursor"
	"github.com/tolmachov/mcp-telegram/internal/history"
	"github.com/tolmachov/mcp-telegram/internal/model"
	"github.com/tolmachov/mcp-telegram/internal/resolver"
)

// FetchHistoryHandler handles the fetch_history tool.
type FetchHistoryHandler struct {
	resolver  *resolver.Resolver
	fetcher   *history.Fetcher
	artifacts *artifact.Manager
	cfg       config.Config
}

// NewFetchHistoryHandler creates a new FetchHistoryHandler.
func NewFetchHistoryHandler(r *resolver.Resolver, f *history.Fetcher, am *artifact.Manager, cfg config.Config) *FetchHistoryHandler {
	return &FetchHistoryHandler{resolver: r, fetcher: f, artifacts: am, cfg: cfg}
}

// Tool returns the MCP tool definition.
func (h *FetchHistoryHandler) Tool() mcp.Tool {
	return mcp.NewTool("fetch_history",
		mcp.WithDescription("Fetch a page of historical messages from a public chat within a bounded UTC date window. Large pages are materialized as an NDJSON artifact resource instead of being returned inline."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("chat",
			mcp.Description("Username, t.me link, or numeric chat ID (or a canonical_id from resolve_chat)"),
			mcp.Required(),
		),
		mcp.WithString("from_date",
			mcp.Description("Window start, inclusive, RFC3339 UTC (e.g. 2024-01-01T00:00:00Z)"),
		),
		mcp.WithString("to_date",
			mcp.Description("Window end, inclusive, RFC3339 UTC"),
		),
		mcp.WithString("direction",
			mcp.Description("asc or desc (default desc)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Messages per page, clamped to the server's max_page_size"),
		),
		mcp.WithString("search",
			mcp.Description("Case-insensitive substring match against message text"),
		),
		mcp.WithObject("filter",
			mcp.Description("Optional result filter: media_types ([]string), has_media (bool), from_users ([]int), min_views (int), max_views (int)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Opaque continuation cursor from a previous fetch_history call"),
		),
	)
}

// Handle processes the fetch_history tool request.
func (h *FetchHistoryHandler) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chat := mcp.ParseString(request, "chat", "")

	ref, err := h.resolver.Resolve(ctx, chat)
	if err != nil {
		return toolError(err), nil
	}

	window, err := h.buildWindow(request, ref)
	if err != nil {
		return toolError(err), nil
	}

	token := mcp.ParseString(request, "cursor", "")

	page, err := h.fetcher.FetchPage(ctx, window, token)
	if err != nil {
		return toolError(err), nil
	}

	summaryCount := len(page.Messages)
	if summaryCount > h.cfg.ExportThreshold {
		windowHash := cursor.WindowHash(window.Chat.CanonicalID, window.FromUTC, window.ToUTC, window.Direction, window.PageSize, window.Search, window.Filter)
		art, err := h.artifacts.Create(ctx, window.Chat.CanonicalID, windowHash, page.Messages)
		if err != nil {
			return toolError(err), nil
		}
		page.Export = &model.PageExport{URI: art.URI, Format: "ndjson"}
		page.Messages = nil
		summaryCount = art.MessageCount
	}

	summary := fmt.Sprintf("%d messages, has_more=%t", summaryCount, page.PageInfo.HasMore)
	if page.Export != nil {
		summary = fmt.Sprintf("%s, exported to %s", summary, page.Export.URI)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: summary},
		},
		StructuredContent: page,
	}, nil
}

func (h *FetchHistoryHandler) buildWindow(request mcp.CallToolRequest, ref model.ChatRef) (model.MessageWindow, error) {
	window := model.MessageWindow{
		Chat:      ref,
		Direction: model.DirectionDesc,
		PageSize:  h.cfg.MaxPageSize,
	}

	if dir := mcp.ParseString(request, "direction", ""); dir != "" {
		switch dir {
		case string(model.DirectionAsc):
			window.Direction = model.DirectionAsc
		case string(model.DirectionDesc):
			window.Direction = model.DirectionDesc
		default:
			return model.MessageWindow{}, apperr.New(apperr.KindValidation, "invalid direction", `direction must be "asc" or "desc"`)
		}
	}

	if fromStr := mcp.ParseString(request, "from_date", ""); fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return model.MessageWindow{}, apperr.Wrap(apperr.KindValidation, "invalid from_date timestamp", err)
		}
		t = t.UTC()
		window.FromUTC = &t
	}

	if toStr := mcp.ParseString(request, "to_date", ""); toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return model.MessageWindow{}, apperr.Wrap(apperr.KindValidation, "invalid to_date timestamp", err)
		}
		t = t.UTC()
		window.ToUTC = &t
	}

	if window.FromUTC != nil && window.ToUTC != nil && window.FromUTC.After(*window.ToUTC) {
		return model.MessageWindow{}, apperr.New(apperr.KindValidation, "invalid window", "from_date must not be after to_date")
	}

	if pageSize := int(mcp.ParseInt64(request, "page_size", 0)); pageSize > 0 {
		window.PageSize = pageSize
		if window.PageSize > h.cfg.MaxPageSize {
			window.PageSize = h.cfg.MaxPageSize
		}
	}

	window.Search = mcp.ParseString(request, "search", "")

	window.Filter = buildFilter(request)

	return window, nil
}

// buildFilter reads the nested "filter" object argument into a FilterRecord.
// Absent or malformed sub-fields are left unset rather than rejected, so a
// caller can pass a partial filter.
func buildFilter(request mcp.CallToolRequest) *model.FilterRecord {
	raw, ok := request.GetArguments()["filter"].(map[string]any)
	if !ok {
		return nil
	}

	var f model.FilterRecord
	set := false

	if v, ok := raw["media_types"].([]any); ok {
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				f.MediaTypes = append(f.MediaTypes, model.MediaKind(s))
			}
		}
		set = len(f.MediaTypes) > 0 || set
	}

	if v, ok := raw["has_media"].(bool); ok {
		hasMedia := v
		f.HasMedia = &hasMedia
		set = true
	}

	if v, ok := raw["from_users"].([]any); ok {
		for _, item := range v {
			switch id := item.(type) {
			case float64:
				f.FromUsers = append(f.FromUsers, int64(id))
			case string:
				if n, err := strconv.ParseInt(id, 10, 64); err == nil {
					f.FromUsers = append(f.FromUsers, n)
				}
			}
		}
		set = len(f.FromUsers) > 0 || set
	}

	if v, ok := raw["min_views"].(float64); ok {
		minViews := int(v)
		f.MinViews = &minViews
		set = true
	}

	if v, ok := raw["max_views"].(float64); ok {
		maxViews := int(v)
		f.MaxViews = &maxViews
		set = true
	}

	if !set {
		return nil
	}
	return &f
}
