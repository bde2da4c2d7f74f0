package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/tolmachov/mcp-telegram/internal/artifact"
	"github.com/tolmachov/mcp-telegram/internal/config"
	"github.com/tolmachov/mcp-telegram/internal/history"
	"github.com/tolmachov/mcp-telegram/internal/resolver"
	"github.com/tolmachov/mcp-telegram/internal/resources"
	"github.com/tolmachov/mcp-telegram/internal/tgclient"
	"github.com/tolmachov/mcp-telegram/internal/tools"
	"github.com/tolmachov/mcp-telegram/internal/waitctl"
)

// Server represents the MCP server exporting Telegram chat history.
type Server struct {
	mcpServer *server.MCPServer
	tgConfig  *tgclient.Config
	cfg       config.Config
	stdin     io.Reader
	stdout    io.Writer
	errOut    io.Writer
}

// New creates a new MCP server.
func New(tgCfg *tgclient.Config, cfg config.Config, version string, stdin io.Reader, stdout, errOut io.Writer) (*Server, error) {
	mcpServer := server.NewMCPServer(
		"mcp-telegram",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	return &Server{
		mcpServer: mcpServer,
		tgConfig:  tgCfg,
		cfg:       cfg,
		stdin:     stdin,
		stdout:    stdout,
		errOut:    errOut,
	}, nil
}

// Run starts the MCP server over stdio.
func (s *Server) Run(ctx context.Context) error {
	client, waiter := tgclient.CreateClient(s.tgConfig)

	err := waiter.Run(ctx, func(ctx context.Context) error {
		return client.Run(ctx, func(ctx context.Context) error {
			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("checking auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("not authorized, please run 'login' command first")
			}

			if err := os.MkdirAll(s.cfg.ArtifactDir, 0o755); err != nil {
				return fmt.Errorf("creating artifact directory: %w", err)
			}

			resolverCacheSize := 0
			if s.cfg.ResolverCacheEnabled {
				resolverCacheSize = s.cfg.ResolverCacheSize
			}
			chatResolver := resolver.New(resolver.NewTGProvider(client.API(), s.cfg.RequestTimeout), resolverCacheSize)

			waitCtl := waitctl.New(waitctl.Config{
				WaitBudget:     s.cfg.WaitBudget,
				MaxAttempts:    s.cfg.MaxRetryAttempts,
				BaseBackoff:    250 * time.Millisecond,
				JitterRatio:    0.1,
				RPS:            1,
				RequestTimeout: s.cfg.RequestTimeout,
			})
			fetcher := history.New(history.NewTGProvider(client.API()), waitCtl, s.cfg.InnerReadMultiplier, s.cfg.RequestTimeout)

			artifacts := artifact.New(s.cfg.ArtifactDir, s.cfg.ArtifactTTL)
			artifacts.Run(ctx, s.cfg.ArtifactSweepInterval)

			tools.RegisterTools(s.mcpServer, []tools.Handler{
				tools.NewResolveChatHandler(chatResolver),
				tools.NewFetchHistoryHandler(chatResolver, fetcher, artifacts, s.cfg),
			})

			resources.RegisterResources(s.mcpServer,
				[]resources.ResourceHandler{},
				[]resources.ResourceTemplateHandler{
					resources.NewChatInfoHandler(chatResolver),
					resources.NewChatMessagesHandler(chatResolver, fetcher, artifacts, s.cfg),
					resources.NewArtifactHandler(artifacts),
				},
			)

			errLogger := log.New(s.errOut, "[mcp-telegram] ", log.LstdFlags)
			stdioServer := server.NewStdioServer(s.mcpServer)
			stdioServer.SetErrorLogger(errLogger)

			return stdioServer.Listen(ctx, s.stdin, s.stdout)
		})
	})
	if err != nil {
		return fmt.Errorf("running server: %w", err)
	}
	return nil
}
