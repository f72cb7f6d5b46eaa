// ABOUTME: MCP tools for recipe CRUD operations.
// ABOUTME: Maps CLI functionality to MCP tool interface.

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/cookbook/internal/degrade"
	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/models"
	"github.com/harper/cookbook/internal/store"
	"github.com/harper/cookbook/internal/ui"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// add_recipe
	s.server.AddTool(&mcp.Tool{
		Name:        "add_recipe",
		Description: "Create a new recipe. Photos are downscaled and compressed before saving.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Recipe title"},
				"date": {"type": "string", "description": "Date cooked (YYYY-MM-DD)"},
				"rating": {"type": "integer", "minimum": 0, "maximum": 5, "description": "Star rating"},
				"instructions": {"type": "string", "description": "Cooking instructions (markdown)"},
				"notes": {"type": "string", "description": "Optional notes"},
				"images": {"type": "array", "items": {"type": "string"}, "maxItems": 3, "description": "Up to 3 photos as data URLs or base64"},
				"allow_degrade": {"type": "boolean", "description": "If storage is full, save with fewer photos instead of failing", "default": false}
			},
			"required": ["title", "date", "instructions"]
		}`),
	}, s.handleAddRecipe)

	// list_recipes
	s.server.AddTool(&mcp.Tool{
		Name:        "list_recipes",
		Description: "List recipes with optional search, sort, and paging",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"search": {"type": "string", "description": "Case-insensitive match on title, instructions, notes"},
				"sort": {"type": "string", "enum": ["date-desc", "date-asc", "rating-desc", "rating-asc"], "default": "date-desc"},
				"page": {"type": "integer", "description": "1-based page", "default": 1},
				"per_page": {"type": "integer", "description": "Recipes per page", "default": 6}
			}
		}`),
	}, s.handleListRecipes)

	// get_recipe
	s.server.AddTool(&mcp.Tool{
		Name:        "get_recipe",
		Description: "Get a recipe by ID prefix",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Recipe ID or prefix (6+ chars)"},
				"include_images": {"type": "boolean", "description": "Include photo data URLs", "default": false}
			},
			"required": ["id"]
		}`),
	}, s.handleGetRecipe)

	// update_recipe
	s.server.AddTool(&mcp.Tool{
		Name:        "update_recipe",
		Description: "Update fields of a recipe. Omitted fields are unchanged.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Recipe ID or prefix"},
				"title": {"type": "string"},
				"date": {"type": "string", "description": "YYYY-MM-DD"},
				"rating": {"type": "integer", "minimum": 0, "maximum": 5},
				"instructions": {"type": "string"},
				"notes": {"type": "string"},
				"add_images": {"type": "array", "items": {"type": "string"}, "description": "Photos to append, as data URLs or base64"},
				"remove_images": {"type": "array", "items": {"type": "integer"}, "description": "1-based photo positions to remove"},
				"allow_degrade": {"type": "boolean", "default": false}
			},
			"required": ["id"]
		}`),
	}, s.handleUpdateRecipe)

	// delete_recipe
	s.server.AddTool(&mcp.Tool{
		Name:        "delete_recipe",
		Description: "Delete a recipe",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Recipe ID or prefix"}
			},
			"required": ["id"]
		}`),
	}, s.handleDeleteRecipe)

	// get_draft
	s.server.AddTool(&mcp.Tool{
		Name:        "get_draft",
		Description: "Get the unsaved recipe draft left by an interrupted edit, if any",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleGetDraft)

	// storage_usage
	s.server.AddTool(&mcp.Tool{
		Name:        "storage_usage",
		Description: "Report how much of the storage budget is used",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleStorageUsage)
}

// recipeSummary is the list view of a recipe, without photo data.
type recipeSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Rating  int    `json:"rating"`
	Images  int    `json:"images"`
	Preview string `json:"preview"`
}

func summarize(r models.Recipe) recipeSummary {
	return recipeSummary{
		ID:      r.ID,
		Title:   r.Title,
		Date:    r.Date,
		Rating:  r.Rating,
		Images:  len(r.Images),
		Preview: ui.Preview(r.Instructions, ui.PreviewLength),
	}
}

// Tool handlers.
func (s *Server) handleAddRecipe(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Title        string   `json:"title"`
		Date         string   `json:"date"`
		Rating       int      `json:"rating"`
		Instructions string   `json:"instructions"`
		Notes        string   `json:"notes"`
		Images       []string `json:"images"`
		AllowDegrade bool     `json:"allow_degrade"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	images, warnings, err := s.normalizeImages(ctx, params.Images, 0)
	if err != nil {
		return errorResult("failed to process images: %v", err), nil
	}

	recipe := models.NewRecipe(params.Title, params.Date, params.Rating, params.Instructions, params.Notes, images)
	if err := recipe.Validate(); err != nil {
		return errorResult("%v", err), nil
	}

	return s.save(ctx, *recipe, params.AllowDegrade, "Created", warnings), nil
}

func (s *Server) handleListRecipes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Search  string `json:"search"`
		Sort    string `json:"sort"`
		Page    int    `json:"page"`
		PerPage int    `json:"per_page"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	order, ok := store.ParseSortOrder(params.Sort)
	if !ok {
		return errorResult("unknown sort order %q", params.Sort), nil
	}

	page := s.store.List(ctx, &store.Filter{
		Search:  params.Search,
		Sort:    order,
		Page:    params.Page,
		PerPage: params.PerPage,
	})

	out := struct {
		Recipes    []recipeSummary `json:"recipes"`
		Page       int             `json:"page"`
		TotalPages int             `json:"total_pages"`
		Total      int             `json:"total"`
	}{
		Recipes:    make([]recipeSummary, 0, len(page.Recipes)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for _, r := range page.Recipes {
		out.Recipes = append(out.Recipes, summarize(r))
	}

	return jsonResult(out)
}

func (s *Server) handleGetRecipe(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID            string `json:"id"`
		IncludeImages bool   `json:"include_images"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetByPrefix(ctx, params.ID)
	if err != nil {
		return errorResult("recipe not found: %v", err), nil
	}

	if !params.IncludeImages {
		out := struct {
			models.Recipe
			Images int `json:"images"`
		}{Recipe: recipe, Images: len(recipe.Images)}
		return jsonResult(out)
	}
	return jsonResult(recipe)
}

func (s *Server) handleUpdateRecipe(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID           string   `json:"id"`
		Title        *string  `json:"title"`
		Date         *string  `json:"date"`
		Rating       *int     `json:"rating"`
		Instructions *string  `json:"instructions"`
		Notes        *string  `json:"notes"`
		AddImages    []string `json:"add_images"`
		RemoveImages []int    `json:"remove_images"`
		AllowDegrade bool     `json:"allow_degrade"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetByPrefix(ctx, params.ID)
	if err != nil {
		return errorResult("recipe not found: %v", err), nil
	}

	if params.Title != nil {
		recipe.Title = strings.TrimSpace(*params.Title)
	}
	if params.Date != nil {
		recipe.Date = *params.Date
	}
	if params.Rating != nil {
		recipe.Rating = *params.Rating
	}
	if params.Instructions != nil {
		recipe.Instructions = strings.TrimSpace(*params.Instructions)
	}
	if params.Notes != nil {
		recipe.Notes = strings.TrimSpace(*params.Notes)
	}

	kept, err := removeImages(recipe.Images, params.RemoveImages)
	if err != nil {
		return errorResult("%v", err), nil
	}
	added, warnings, err := s.normalizeImages(ctx, params.AddImages, len(kept))
	if err != nil {
		return errorResult("failed to process images: %v", err), nil
	}
	recipe = recipe.WithImages(append(kept, added...))

	if err := recipe.Validate(); err != nil {
		return errorResult("%v", err), nil
	}

	return s.save(ctx, recipe, params.AllowDegrade, "Updated", warnings), nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetByPrefix(ctx, params.ID)
	if err != nil {
		return errorResult("recipe not found: %v", err), nil
	}

	if err := s.store.Delete(ctx, recipe.ID); err != nil {
		return errorResult("failed to delete recipe: %s", storeMessage(err)), nil
	}

	return textResult(fmt.Sprintf("Deleted recipe %s (%s)", recipe.ID, recipe.Title)), nil
}

func (s *Server) handleGetDraft(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draft, err := s.store.LoadDraft(ctx)
	if errors.Is(err, store.ErrNoDraft) {
		return textResult("No draft saved"), nil
	}
	if err != nil {
		return errorResult("failed to read draft: %v", err), nil
	}

	out := struct {
		models.Draft
		Images int  `json:"images"`
		IsNew  bool `json:"is_new"`
	}{Draft: draft, Images: len(draft.Images), IsNew: draft.IsNew()}
	return jsonResult(out)
}

func (s *Server) handleStorageUsage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	usage, ok := s.store.Usage()
	if !ok {
		return textResult("Storage is unlimited"), nil
	}

	out := struct {
		Used      int64 `json:"used_bytes"`
		Limit     int64 `json:"limit_bytes"`
		Remaining int64 `json:"remaining_bytes"`
		Low       bool  `json:"low"`
	}{usage.Used, usage.Limit, usage.Remaining, usage.Low()}
	return jsonResult(out)
}

// save runs the recipe through the degradation policy and describes the outcome.
func (s *Server) save(ctx context.Context, recipe models.Recipe, allowDegrade bool, verb string, warnings []string) *mcp.CallToolResult {
	out, err := s.policy(allowDegrade).Save(ctx, recipe)
	switch {
	case errors.Is(err, degrade.ErrDeclined):
		return errorResult("storage is full; retry with allow_degrade to save with fewer photos, or delete old recipes")
	case errors.Is(err, degrade.ErrExhausted):
		return errorResult("%v", err)
	case err != nil:
		return errorResult("failed to save recipe: %s", storeMessage(err))
	}

	msg := fmt.Sprintf("%s recipe %s", verb, out.Recipe.ID)
	if out.Reduced() {
		msg += fmt.Sprintf(" (storage full: saved with %d of %d photos)", len(out.Recipe.Images), len(recipe.Images))
	}
	for _, w := range warnings {
		msg += "\n" + w
	}
	return textResult(msg)
}

// normalizeImages decodes agent-supplied photos and runs them through the
// normalizer. Photos that fail are reported as warnings, not errors.
func (s *Server) normalizeImages(ctx context.Context, raw []string, existing int) ([]string, []string, error) {
	if len(raw) == 0 {
		return []string{}, nil, nil
	}

	var warnings []string
	uploads := make([]imaging.Upload, 0, len(raw))
	for i, r := range raw {
		name := fmt.Sprintf("image %d", i+1)
		data, err := decodeImageArg(r)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		uploads = append(uploads, imaging.Upload{Name: name, Data: data})
	}

	results, err := s.normalizer.NormalizeBatch(ctx, uploads, existing)
	if err != nil {
		return nil, nil, err
	}
	for _, res := range results {
		if res.Err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", res.Name, res.Err))
		}
	}
	return imaging.Images(results), warnings, nil
}

func decodeImageArg(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		_, data, err := imaging.DecodeDataURL(s)
		return data, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imaging.ErrDecode, err)
	}
	return data, nil
}

// removeImages drops the given 1-based positions.
func removeImages(images []string, positions []int) ([]string, error) {
	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 1 || p > len(images) {
			return nil, fmt.Errorf("no photo at position %d", p)
		}
		drop[p-1] = true
	}
	kept := make([]string, 0, len(images))
	for i, img := range images {
		if !drop[i] {
			kept = append(kept, img)
		}
	}
	return kept, nil
}

func storeMessage(err error) string {
	var se *store.Error
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}
