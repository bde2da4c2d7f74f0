package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tolmachov/mcp-telegram/internal/resolver"
)

// ResolveChatHandler handles the resolve_chat tool.
type ResolveChatHandler struct {
	resolver *resolver.Resolver
}

// NewResolveChatHandler creates a new ResolveChatHandler.
func NewResolveChatHandler(r *resolver.Resolver) *ResolveChatHandler {
	return &ResolveChatHandler{resolver: r}
}

// Tool returns the MCP tool definition.
func (h *ResolveChatHandler) Tool() mcp.Tool {
	return mcp.NewTool("resolve_chat",
		mcp.WithDescription("Resolve a public chat, group, or channel by username, t.me link, or numeric ID to its canonical reference."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("input",
			mcp.Description("Username (with or without @), t.me/<name> link, or numeric chat ID"),
			mcp.Required(),
		),
	)
}

// Handle processes the resolve_chat tool request.
func (h *ResolveChatHandler) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := mcp.ParseString(request, "input", "")

	ref, err := h.resolver.Resolve(ctx, input)
	if err != nil {
		return toolError(err), nil
	}

	summary := fmt.Sprintf("%s %q (canonical_id=%d)", ref.Kind, ref.Title, ref.CanonicalID)
	if ref.Username != "" {
		summary = fmt.Sprintf("%s, @%s", summary, ref.Username)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: summary},
		},
		StructuredContent: ref,
	}, nil
}
