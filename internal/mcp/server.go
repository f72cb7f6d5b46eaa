// ABOUTME: MCP server for cookbook integration with AI agents.
// ABOUTME: Provides tools, resources, and prompts for recipe management.

package mcp

import (
	"context"

	"github.com/harper/cookbook/internal/degrade"
	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Server struct {
	server     *mcp.Server
	store      *store.Store
	normalizer *imaging.Normalizer
	log        *logger.Logger
}

func NewServer(st *store.Store, normalizer *imaging.Normalizer, log *logger.Logger, version string) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{store: st, normalizer: normalizer, log: log.Component("mcp")}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "cookbook",
			Version: version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
			HasPrompts:   true,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// policy returns the save policy for one request. Agents cannot be asked
// interactively, so allowDegrade answers the storage-full question up front.
func (s *Server) policy(allowDegrade bool) *degrade.Policy {
	confirm := degrade.NeverConfirm
	if allowDegrade {
		confirm = degrade.AlwaysConfirm
	}
	return degrade.New(s.store, confirm, s.log)
}
