// ABOUTME: MCP resources for exposing recipes as readable resources.
// ABOUTME: Allows AI agents to read a recipe as markdown via URI scheme.

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/cookbook/internal/export"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const recipeURIPrefix = "cookbook://recipe/"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: recipeURIPrefix + "{id}",
			Name:        "Recipe",
			Description: "Access individual recipes by ID",
			MIMEType:    "text/markdown",
		},
		s.handleReadResource,
	)
}

func (s *Server) handleReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(req.Params.URI, recipeURIPrefix)
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}

	recipe, err := s.store.GetByPrefix(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	content, err := export.Markdown(recipe, nil)
	if err != nil {
		return nil, err
	}
	if n := len(recipe.Images); n > 0 {
		content += fmt.Sprintf("\n_%d photo(s); use get_recipe with include_images to fetch them._\n", n)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     content,
			},
		},
	}, nil
}
