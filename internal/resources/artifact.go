package resources

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tolmachov/mcp-telegram/internal/artifact"
)

// ArtifactHandler handles the telegram-artifact://{id} resource template,
// streaming a materialized NDJSON page back to the caller.
type ArtifactHandler struct {
	artifacts *artifact.Manager
}

// NewArtifactHandler creates a new ArtifactHandler.
func NewArtifactHandler(am *artifact.Manager) *ArtifactHandler {
	return &ArtifactHandler{artifacts: am}
}

// Template returns the MCP resource template definition.
func (h *ArtifactHandler) Template() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"telegram-artifact://{id}",
		"Message Export Artifact",
		mcp.WithTemplateDescription("A materialized NDJSON page too large to return inline from fetch_history"),
		mcp.WithTemplateMIMEType("application/x-ndjson"),
	)
}

// Handle processes the telegram-artifact://{id} resource request.
func (h *ArtifactHandler) Handle(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	file, release, err := h.artifacts.Read(request.Params.URI)
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/x-ndjson",
			Text:     string(data),
		},
	}, nil
}
