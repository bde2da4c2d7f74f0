package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
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

// ChatMessagesHandler handles the telegram://chat/{chat_id}/messages resource template.
type ChatMessagesHandler struct {
	resolver  *resolver.Resolver
	fetcher   *history.Fetcher
	artifacts *artifact.Manager
	cfg       config.Config
}

// NewChatMessagesHandler creates a new ChatMessagesHandler.
func NewChatMessagesHandler(r *resolver.Resolver, f *history.Fetcher, am *artifact.Manager, cfg config.Config) *ChatMessagesHandler {
	return &ChatMessagesHandler{resolver: r, fetcher: f, artifacts: am, cfg: cfg}
}

// Template returns the MCP resource template definition.
func (h *ChatMessagesHandler) Template() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"telegram://chat/{chat_id}/messages?from={from}&to={to}&direction={direction}&page_size={page_size}&search={search}&cursor={cursor}",
		"Chat Messages",
		mcp.WithTemplateDescription("A page of historical messages from a public chat within a bounded UTC date window. Parameters: from, to (RFC3339 UTC), direction (asc|desc, default desc), page_size, search, cursor."),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// Handle processes the telegram://chat/{chat_id}/messages resource request.
func (h *ChatMessagesHandler) Handle(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	chatID, window, token, err := h.parseMessagesURI(request.Params.URI)
	if err != nil {
		return nil, fmt.Errorf("parsing URI: %w", err)
	}

	ref, err := h.resolver.Resolve(ctx, strconv.FormatInt(chatID, 10))
	if err != nil {
		return nil, err
	}
	window.Chat = ref

	page, err := h.fetcher.FetchPage(ctx, window, token)
	if err != nil {
		return nil, err
	}

	if len(page.Messages) > h.cfg.ExportThreshold {
		windowHash := cursor.WindowHash(window.Chat.CanonicalID, window.FromUTC, window.ToUTC, window.Direction, window.PageSize, window.Search, window.Filter)
		art, err := h.artifacts.Create(ctx, window.Chat.CanonicalID, windowHash, page.Messages)
		if err != nil {
			return nil, err
		}
		page.Export = &model.PageExport{URI: art.URI, Format: "ndjson"}
		page.Messages = nil
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling messages: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *ChatMessagesHandler) parseMessagesURI(uri string) (int64, model.MessageWindow, string, error) {
	window := model.MessageWindow{
		Direction: model.DirectionDesc,
		PageSize:  h.cfg.MaxPageSize,
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return 0, window, "", fmt.Errorf("parsing URI: %w", err)
	}

	path := strings.TrimPrefix(parsed.Host+parsed.Path, "chat/")
	path = strings.TrimSuffix(path, "/messages")
	chatID, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		return 0, window, "", fmt.Errorf("parsing chat_id: %w", err)
	}

	query := parsed.Query()

	if fromStr := query.Get("from"); fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return 0, window, "", apperr.Wrap(apperr.KindValidation, "invalid from timestamp", err)
		}
		t = t.UTC()
		window.FromUTC = &t
	}

	if toStr := query.Get("to"); toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return 0, window, "", apperr.Wrap(apperr.KindValidation, "invalid to timestamp", err)
		}
		t = t.UTC()
		window.ToUTC = &t
	}

	if dir := query.Get("direction"); dir != "" {
		switch dir {
		case string(model.DirectionAsc):
			window.Direction = model.DirectionAsc
		case string(model.DirectionDesc):
			window.Direction = model.DirectionDesc
		default:
			return 0, window, "", apperr.New(apperr.KindValidation, "invalid direction", `direction must be "asc" or "desc"`)
		}
	}

	if sizeStr := query.Get("page_size"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			window.PageSize = size
			if window.PageSize > h.cfg.MaxPageSize {
				window.PageSize = h.cfg.MaxPageSize
			}
		}
	}

	window.Search = query.Get("search")

	return chatID, window, query.Get("cursor"), nil
}
