package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
)

// errorEnvelope is the wire shape every tool failure is marshaled into, so a
// caller can branch on type and status without parsing free text.
type errorEnvelope struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter string `json:"retry_after,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
}

// toolError converts any error into a *mcp.CallToolResult carrying the
// typed error envelope as structured content, plus a short human summary in
// the text content. AppError values are rendered verbatim; anything else
// falls back to a generic internal-error envelope so the wire shape stays
// consistent.
func toolError(err error) *mcp.CallToolResult {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Wrap(apperr.KindInternal, "internal error", err)
	}

	env := errorEnvelope{
		Type:   string(appErr.Kind),
		Title:  appErr.Title,
		Status: appErr.Kind.HTTPStatus(),
		Detail: appErr.Detail,
	}
	if appErr.Kind == apperr.KindRateLimited {
		env.RetryAfter = appErr.RetryAfter.String()
		env.Cursor = appErr.Cursor
	}

	summary := env.Title
	if env.Detail != "" {
		summary = fmt.Sprintf("%s: %s", env.Title, env.Detail)
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: summary},
		},
		StructuredContent: env,
	}
}
