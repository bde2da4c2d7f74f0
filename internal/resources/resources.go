package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ResourceHandler defines the interface for fixed-URI resource handlers.
type ResourceHandler interface {
	Resource() mcp.Resource
	Handle(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)
}

// ResourceTemplateHandler defines the interface for parameterized resource
// templates (telegram://chat/{chat_id}, .../messages, telegram-artifact://).
type ResourceTemplateHandler interface {
	Template() mcp.ResourceTemplate
	Handle(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)
}

// RegisterResources registers every fixed resource and resource template
// with the MCP server.
func RegisterResources(s *server.MCPServer, handlers []ResourceHandler, templates []ResourceTemplateHandler) {
	for _, r := range handlers {
		s.AddResource(r.Resource(), r.Handle)
	}
	for _, t := range templates {
		s.AddResourceTemplate(t.Template(), t.Handle)
	}
}
