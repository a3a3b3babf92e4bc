package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaURL is the absolute id the compiled schema is registered under.
const schemaURL = "mem://extraction.json"

// Field names of the success body, grouped by their JSON type.
var (
	numericFields = map[string][]string{
		"customers": {"totalPurchaseAmount"},
		"invoices":  {"quantity", "totalAmount"},
		"products":  {"quantity", "unitPrice", "tax", "priceWithTax"},
	}
	textFields = map[string][]string{
		"customers": {"customerName", "phoneNumber"},
		"invoices":  {"serialNumber", "customerName", "productName", "date"},
		"products":  {"name", "discount"},
	}
	collections = []string{"customers", "invoices", "products"}
)

// BuildExtractionJSONSchema returns the JSON Schema (draft 2020-12 subset) of the success body.
// Records may omit fields; the service fills unknown values with "NA".
func BuildExtractionJSONSchema() map[string]any {
	props := map[string]any{}
	for _, name := range collections {
		fields := map[string]any{}
		for _, f := range numericFields[name] {
			fields[f] = map[string]any{"type": "number"}
		}
		for _, f := range textFields[name] {
			fields[f] = map[string]any{"type": "string"}
		}
		props[name] = map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type":       "object",
				"properties": fields,
			},
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	schema, err := jsonschema.CompileString(schemaURL, string(b))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateDocument checks a decoded JSON document against schema.
func validateDocument(schema *jsonschema.Schema, doc any) error {
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
