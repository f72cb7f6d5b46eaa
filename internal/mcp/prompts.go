// ABOUTME: MCP prompts for common cooking workflows.
// ABOUTME: Provides pre-configured prompts for AI agent interactions.

package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "plan-weekly-menu",
		Description: "Plan a week of dinners from the saved recipes",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "preferences",
				Description: "Dietary preferences or ingredients to use up",
				Required:    false,
			},
		},
	}, s.getWeeklyMenuPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "improve-recipe",
		Description: "Suggest improvements to a saved recipe based on its notes and rating",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "recipe_id",
				Description: "ID of the recipe to improve",
				Required:    true,
			},
		},
	}, s.getImproveRecipePrompt)
}

func (s *Server) getWeeklyMenuPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	prefs, ok := req.Params.Arguments["preferences"]
	if !ok || prefs == "" {
		prefs = "none"
	}

	template := fmt.Sprintf(`Plan dinners for the coming week using my saved recipes.

Preferences: %s

1. Use the list_recipes tool with sort "rating-desc" and per_page -1 to see every recipe
2. Favor highly rated recipes, but avoid repeating one within the week
3. Use get_recipe to read the instructions of anything you are unsure about
4. Present the plan as a table of day, recipe title, and recipe ID
5. Finish with a combined shopping list grouped by store section`, prefs)

	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: template,
				},
			},
		},
	}, nil
}

func (s *Server) getImproveRecipePrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	recipeID, ok := req.Params.Arguments["recipe_id"]
	if !ok || recipeID == "" {
		return nil, fmt.Errorf("recipe_id argument is required")
	}

	template := fmt.Sprintf(`Help me improve the recipe with ID: %s

1. Use the get_recipe tool to retrieve the recipe
2. Read the instructions, notes, and rating
3. Suggest concrete changes to technique, timing, or seasoning
4. Keep my own wording where it works
5. If I agree, use the update_recipe tool to save the revised instructions and add a dated line to the notes`, recipeID)

	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: template,
				},
			},
		},
	}, nil
}
