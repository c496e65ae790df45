package prompt

import "encoding/json"

// Type is a JSON schema node type understood by every model provider.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
)

// Schema describes the output shape a model is asked to produce.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	// PropertyOrder keeps rendering stable; maps have no order.
	PropertyOrder []string `json:"-"`
}

// JSON renders the schema for providers that only accept it as prompt text.
func (s *Schema) JSON() string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}

type field struct {
	name   string
	schema *Schema
}

func str(desc string) *Schema     { return &Schema{Type: TypeString, Description: desc} }
func num(desc string) *Schema     { return &Schema{Type: TypeNumber, Description: desc} }
func boolean(desc string) *Schema { return &Schema{Type: TypeBoolean, Description: desc} }

func arrayOf(items *Schema, desc string) *Schema {
	return &Schema{Type: TypeArray, Items: items, Description: desc}
}

func object(fields ...field) *Schema {
	s := &Schema{Type: TypeObject, Properties: make(map[string]*Schema, len(fields))}
	for _, f := range fields {
		s.Properties[f.name] = f.schema
		s.PropertyOrder = append(s.PropertyOrder, f.name)
	}
	return s
}

func ingredientSchema() *Schema {
	return object(
		field{"name", str("")},
		field{"amount", str("Human readable amount in IMPERIAL units, e.g. '1 cup', '4 oz'")},
		field{"quantity", num("Numeric amount for scaling, e.g. 1.0")},
		field{"unit", str("Unit string, e.g. 'cup', 'oz', 'lb'")},
		field{"category", str("")},
	)
}

// RecipeSchema is the object shape of a single recipe. The id is optional and
// backfilled after parsing when the model leaves it out.
func RecipeSchema() *Schema {
	return object(
		field{"id", str("")},
		field{"title", str("")},
		field{"description", str("Short summary (max 20 words)")},
		field{"servings", num("")},
		field{"ingredients", arrayOf(ingredientSchema(), "")},
		field{"instructions", arrayOf(str(""), "Step-by-step instructions. Keep concise.")},
		field{"prepTimeMinutes", num("")},
		field{"cookTimeMinutes", num("")},
		field{"calories", num("")},
		field{"macros", object(
			field{"protein", num("")},
			field{"carbs", num("")},
			field{"fats", num("")},
			field{"fiber", num("")},
		)},
		field{"healthTags", arrayOf(str(""), "")},
		field{"reasoning", str("Brief explanation of health benefits (max 40 words)")},
	)
}

// RecipeListSchema is an array of RecipeSchema objects.
func RecipeListSchema() *Schema {
	return arrayOf(RecipeSchema(), "")
}

// ShoppingListSchema is an array of shopping items.
func ShoppingListSchema() *Schema {
	return arrayOf(object(
		field{"name", str("Name of item")},
		field{"amount", str("Total quantity with unit (Imperial)")},
		field{"category", str("Category (e.g. Produce)")},
		field{"checked", boolean("Always false")},
		field{"alreadyHave", boolean("Always false")},
		field{"note", str("Optional note, e.g. 'Check pantry for existing amount'")},
	), "")
}
