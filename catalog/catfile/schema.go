package catfile

import (
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	schemaURI = "http://json-schema.org/draft-07/schema#"

	// refPattern matches "source.attribute" references.
	refPattern = `^[^.]+\.[^.]+$`
)

// falseSchema returns the JSON Schema "false" value, which validates
// nothing. Used to forbid additional properties.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func nameSchema(desc string) *jsonschema.Schema {
	one := 1

	return &jsonschema.Schema{Type: "string", MinLength: &one, Description: desc}
}

func refSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Pattern: refPattern, Description: desc}
}

// Schema describes the catalog file format as JSON Schema (Draft 7),
// suitable for editor validation and completion. The `unitab schema`
// command prints it.
func Schema() *jsonschema.Schema {
	attribute := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name": nameSchema("Column name as it appears in the CSV header."),
			"type": {
				Type:        "string",
				Enum:        []any{"string", "number", "date"},
				Description: "Optional data type; omitted means untyped.",
			},
			"format": {
				Type:        "string",
				Description: "Render format for date attributes, e.g. YYYY-MM-DD.",
			},
		},
		AdditionalProperties: falseSchema(),
	}

	source := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":        nameSchema("Data source name, unique across all systems."),
			"file":        {Type: "string", Description: "Expected CSV file name."},
			"description": {Type: "string"},
			"active":      {Type: "boolean", Description: "Defaults to true."},
			"master":      {Type: "boolean", Description: "Master sources drive output rows."},
			"attributes":  {Type: "array", Items: attribute},
		},
		AdditionalProperties: falseSchema(),
	}

	crossRefEdge := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"source", "target"},
		Properties: map[string]*jsonschema.Schema{
			"source": refSchema("Master-side attribute."),
			"target": refSchema("Reference-side attribute."),
		},
		AdditionalProperties: falseSchema(),
	}

	crossRef := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "mappings"},
		Properties: map[string]*jsonschema.Schema{
			"name":     nameSchema("Cross-reference name, unique."),
			"active":   {Type: "boolean", Description: "Defaults to true."},
			"mappings": {Type: "array", Items: crossRefEdge},
		},
		AdditionalProperties: falseSchema(),
	}

	mapping := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"canonical", "primary"},
		Properties: map[string]*jsonschema.Schema{
			"canonical": nameSchema("Canonical attribute the binding fills."),
			"primary":   refSchema("Primary source attribute."),
			"secondary": refSchema("Fallback used when the primary resolves empty."),
		},
		AdditionalProperties: falseSchema(),
	}

	filter := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "attribute", "operator", "value"},
		Properties: map[string]*jsonschema.Schema{
			"name":      nameSchema("Filter condition name, unique."),
			"attribute": refSchema("Attribute the condition inspects."),
			"operator": {
				Type: "string",
				Enum: []any{"=", ">", "<"},
			},
			"value": {Type: "string"},
		},
		AdditionalProperties: falseSchema(),
	}

	system := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":   nameSchema("Data system name, unique."),
			"active": {Type: "boolean", Description: "Defaults to true."},
		},
		AdditionalProperties: falseSchema(),
	}

	return &jsonschema.Schema{
		Schema:      schemaURI,
		Title:       "Unitab catalog file",
		Description: "Declares one data system: sources, attributes, cross-references, data mappings, and filter conditions.",
		Type:        "object",
		Required:    []string{"system", "sources"},
		Properties: map[string]*jsonschema.Schema{
			"system": system,
			"canonical": {
				Type:        "array",
				Items:       nameSchema("Canonical attribute name."),
				Description: "Canonical vocabulary entries, in output column order.",
			},
			"sources":   {Type: "array", Items: source},
			"crossRefs": {Type: "array", Items: crossRef},
			"mappings":  {Type: "array", Items: mapping},
			"filters":   {Type: "array", Items: filter},
		},
		AdditionalProperties: falseSchema(),
	}
}
