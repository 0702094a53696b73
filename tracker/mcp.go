package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/meal"
)

// RegisterMCP exposes the tracker operations as MCP tools, so an assistant
// can log and query meals through the same engine the UI uses.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerCompose(srv)
	s.registerSetTotalWeight(srv)
	s.registerEditPercentage(srv)
	s.registerRemoveIngredient(srv)
	s.registerSaveMeal(srv)
	s.registerListMeals(srv)
	s.registerDeleteMeal(srv)
	s.registerGetSettings(srv)
	s.registerSaveSettings(srv)
	s.registerTodayNutrition(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

// registerTool wires a decode/endpoint pair into the SDK handler shape.
// Application errors travel inside the result, not as protocol errors.
func registerTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p Req
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := endpoint(ctx, &p)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

var ingredientItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":         map[string]any{"type": "string"},
		"name":       map[string]any{"type": "string"},
		"percentage": map[string]any{"type": "number"},
		"weight":     map[string]any{"type": "integer"},
	},
}

func (s *Service) registerCompose(srv *mcp.Server) {
	type req struct {
		Predictions []foodmatch.Prediction `json:"predictions"`
		TotalWeight float64                `json:"total_weight"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_compose",
		Description: "Turn ranked classifier labels into a meal draft: canonical foods, equal percentages, per-ingredient weights and nutrition",
		InputSchema: inputSchema(map[string]any{
			"predictions": map[string]any{
				"type":        "array",
				"description": "Classifier output, ordered by rank",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label":      map[string]any{"type": "string"},
						"confidence": map[string]any{"type": "number"},
					},
				},
			},
			"total_weight": map[string]any{"type": "number", "description": "Total meal weight in grams"},
		}, []string{"predictions", "total_weight"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		ingredients, err := s.Compose(ctx, p.Predictions, p.TotalWeight)
		if err != nil {
			return nil, err
		}
		return newIngredientSet(ingredients), nil
	})
}

func (s *Service) registerSetTotalWeight(srv *mcp.Server) {
	type req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		TotalWeight float64           `json:"total_weight"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_set_total_weight",
		Description: "Rescale ingredient weights and nutrition to a new total meal weight, keeping percentages",
		InputSchema: inputSchema(map[string]any{
			"ingredients":  map[string]any{"type": "array", "items": ingredientItemSchema},
			"total_weight": map[string]any{"type": "number", "description": "New total weight in grams"},
		}, []string{"ingredients", "total_weight"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		ingredients, err := s.SetTotalWeight(ctx, p.Ingredients, p.TotalWeight)
		if err != nil {
			return nil, err
		}
		return newIngredientSet(ingredients), nil
	})
}

func (s *Service) registerEditPercentage(srv *mcp.Server) {
	type req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		ID          string            `json:"id"`
		Percentage  float64           `json:"percentage"`
		TotalWeight float64           `json:"total_weight"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_edit_percentage",
		Description: "Set one ingredient's percentage. Other percentages are left alone; the result reports whether they still sum to 100",
		InputSchema: inputSchema(map[string]any{
			"ingredients":  map[string]any{"type": "array", "items": ingredientItemSchema},
			"id":           map[string]any{"type": "string", "description": "Ingredient ID to edit"},
			"percentage":   map[string]any{"type": "number"},
			"total_weight": map[string]any{"type": "number"},
		}, []string{"ingredients", "id", "percentage", "total_weight"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		ingredients, err := s.EditPercentage(ctx, p.Ingredients, p.ID, p.Percentage, p.TotalWeight)
		if err != nil {
			return nil, err
		}
		return newIngredientSet(ingredients), nil
	})
}

func (s *Service) registerRemoveIngredient(srv *mcp.Server) {
	type req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		ID          string            `json:"id"`
		TotalWeight float64           `json:"total_weight"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_remove_ingredient",
		Description: "Remove an ingredient and redistribute percentages equally among the rest",
		InputSchema: inputSchema(map[string]any{
			"ingredients":  map[string]any{"type": "array", "items": ingredientItemSchema},
			"id":           map[string]any{"type": "string", "description": "Ingredient ID to remove"},
			"total_weight": map[string]any{"type": "number"},
		}, []string{"ingredients", "id", "total_weight"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		ingredients, err := s.RemoveIngredient(ctx, p.Ingredients, p.ID, p.TotalWeight)
		if err != nil {
			return nil, err
		}
		return newIngredientSet(ingredients), nil
	})
}

func (s *Service) registerSaveMeal(srv *mcp.Server) {
	type req struct {
		ID          string            `json:"id"`
		Timestamp   int64             `json:"timestamp"`
		TotalWeight float64           `json:"total_weight"`
		Ingredients []meal.Ingredient `json:"ingredients"`
		Notes       string            `json:"notes"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_save_meal",
		Description: "Persist a meal. Percentages must sum to 100 within tolerance; ID and timestamp are filled in when absent",
		InputSchema: inputSchema(map[string]any{
			"id":           map[string]any{"type": "string", "description": "Existing meal ID to overwrite, empty for a new meal"},
			"timestamp":    map[string]any{"type": "integer", "description": "Unix milliseconds, defaults to now"},
			"total_weight": map[string]any{"type": "number"},
			"ingredients":  map[string]any{"type": "array", "items": ingredientItemSchema},
			"notes":        map[string]any{"type": "string"},
		}, []string{"ingredients", "total_weight"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		m := &meal.Meal{
			ID:          p.ID,
			Timestamp:   p.Timestamp,
			TotalWeight: p.TotalWeight,
			Ingredients: p.Ingredients,
			Notes:       p.Notes,
		}
		if err := s.SaveMeal(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	})
}

func (s *Service) registerListMeals(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "platewise_list_meals",
		Description: "List all saved meals, newest first",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	registerTool(srv, tool, func(ctx context.Context, _ *req) (any, error) {
		meals, err := s.Meals(ctx)
		if err != nil {
			return nil, err
		}
		if meals == nil {
			meals = []*meal.Meal{}
		}
		return meals, nil
	})
}

func (s *Service) registerDeleteMeal(srv *mcp.Server) {
	type req struct {
		ID string `json:"id"`
	}

	tool := &mcp.Tool{
		Name:        "platewise_delete_meal",
		Description: "Delete a meal by ID. Deleting a missing meal is not an error",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Meal ID"},
		}, []string{"id"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		s.DeleteMeal(ctx, p.ID)
		return map[string]string{"status": "deleted"}, nil
	})
}

func (s *Service) registerGetSettings(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "platewise_get_settings",
		Description: "Read user settings: daily targets, units, dark mode",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	registerTool(srv, tool, func(ctx context.Context, _ *req) (any, error) {
		settings, err := s.Settings(ctx)
		if err != nil {
			return nil, err
		}
		return settings, nil
	})
}

func (s *Service) registerSaveSettings(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "platewise_save_settings",
		Description: "Replace user settings. Targets must be finite numbers; units must be metric or imperial",
		InputSchema: inputSchema(map[string]any{
			"dailyCalories": map[string]any{"type": "number"},
			"dailyProtein":  map[string]any{"type": "number"},
			"dailyCarbs":    map[string]any{"type": "number"},
			"dailyFat":      map[string]any{"type": "number"},
			"units":         map[string]any{"type": "string", "description": "metric or imperial"},
			"darkMode":      map[string]any{"type": "boolean"},
		}, []string{"dailyCalories", "dailyProtein", "dailyCarbs", "dailyFat", "units"}),
	}

	registerTool(srv, tool, func(ctx context.Context, p *meal.Settings) (any, error) {
		if err := s.SaveSettings(ctx, *p); err != nil {
			return nil, err
		}
		return p, nil
	})
}

func (s *Service) registerTodayNutrition(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "platewise_today_nutrition",
		Description: "Total calories and macros for all meals logged today",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	registerTool(srv, tool, func(ctx context.Context, _ *req) (any, error) {
		return s.TodayNutrition(ctx)
	})
}
