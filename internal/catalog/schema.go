package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// InputSchema is the input schema shared by every widget tool. It is written
// by hand so the published schema stays exactly this shape rather than
// whatever reflection on Args would produce.
var InputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "User's search query or product preferences (e.g., 'wireless headphones', 'running shoes under $150')"
		},
		"category": {
			"type": "string",
			"description": "Product category to filter by (e.g., 'Electronics', 'Footwear', 'Accessories')",
			"enum": ["Electronics", "Wearables", "Accessories", "Footwear", "Lifestyle", "Gaming", "All"]
		},
		"priceRange": {
			"type": "object",
			"properties": {
				"min": {
					"type": "number",
					"description": "Minimum price in USD"
				},
				"max": {
					"type": "number",
					"description": "Maximum price in USD"
				}
			},
			"additionalProperties": false
		},
		"sortBy": {
			"type": "string",
			"description": "How to sort products",
			"enum": ["price-low", "price-high", "rating", "popular", "newest"]
		}
	},
	"required": ["query"],
	"additionalProperties": false
}`)

// Categories lists the accepted category values.
var Categories = []string{"Electronics", "Wearables", "Accessories", "Footwear", "Lifestyle", "Gaming", "All"}

// SortKeys lists the accepted sortBy values.
var SortKeys = []string{"price-low", "price-high", "rating", "popular", "newest"}

// ErrValidation matches every argument validation failure.
var ErrValidation = errors.New("invalid tool arguments")

// ValidationError describes why tool arguments were rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PriceRange is an optional price filter.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Args are validated tool arguments.
type Args struct {
	Query      string      `json:"query"`
	Category   string      `json:"category,omitempty"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	SortBy     string      `json:"sortBy,omitempty"`
}

var (
	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
)

func resolvedSchema() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal(InputSchema, &s); err != nil {
			resolveErr = fmt.Errorf("parse input schema: %w", err)
			return
		}
		resolved, resolveErr = s.Resolve(nil)
	})
	return resolved, resolveErr
}

// ParseArgs validates raw tool arguments against InputSchema and decodes
// them. Missing or null arguments are treated as an empty object.
func ParseArgs(raw json.RawMessage) (Args, error) {
	rs, err := resolvedSchema()
	if err != nil {
		return Args{}, err
	}

	instance := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &instance); err != nil {
			return Args{}, &ValidationError{Reason: fmt.Sprintf("arguments must be a JSON object: %v", err)}
		}
		if instance == nil {
			instance = map[string]any{}
		}
	}

	if err := rs.Validate(instance); err != nil {
		return Args{}, &ValidationError{Reason: err.Error()}
	}

	var args Args
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return Args{}, &ValidationError{Reason: err.Error()}
		}
	}
	return args, nil
}
