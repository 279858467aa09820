package pointing

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "pointing.schema.json"

// schemaDoc describes the JSON form produced by Pointing.MarshalJSON.
const schemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Pointing",
  "description": "Spatial annotations extracted from model output. Exactly one of points, boxes or polygons is present.",
  "type": "object",
  "properties": {
    "points": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/point"}},
    "boxes": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/box"}},
    "polygons": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/polygon"}}
  },
  "oneOf": [
    {"required": ["points"]},
    {"required": ["boxes"]},
    {"required": ["polygons"]}
  ],
  "additionalProperties": false,
  "$defs": {
    "ordinate": {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "mention": {"type": "string"},
    "coordinate": {
      "type": "array",
      "prefixItems": [{"$ref": "#/$defs/ordinate"}, {"$ref": "#/$defs/ordinate"}],
      "minItems": 2,
      "maxItems": 2
    },
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"$ref": "#/$defs/ordinate"},
        "y": {"$ref": "#/$defs/ordinate"},
        "mention": {"$ref": "#/$defs/mention"}
      },
      "additionalProperties": false
    },
    "box": {
      "type": "object",
      "required": ["x1", "y1", "x2", "y2"],
      "properties": {
        "x1": {"$ref": "#/$defs/ordinate"},
        "y1": {"$ref": "#/$defs/ordinate"},
        "x2": {"$ref": "#/$defs/ordinate"},
        "y2": {"$ref": "#/$defs/ordinate"},
        "mention": {"$ref": "#/$defs/mention"}
      },
      "additionalProperties": false
    },
    "polygon": {
      "type": "object",
      "required": ["hull"],
      "properties": {
        "hull": {"type": "array", "minItems": 3, "items": {"$ref": "#/$defs/coordinate"}},
        "mention": {"$ref": "#/$defs/mention"}
      },
      "additionalProperties": false
    }
  }
}`

// Schema returns the JSON Schema document for serialized Pointing values.
func Schema() json.RawMessage {
	return json.RawMessage(schemaDoc)
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, strings.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("failed to load pointing schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pointing schema: %w", err)
	}
	return schema, nil
})

// ValidateJSON checks raw JSON against the Pointing schema.
func ValidateJSON(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode pointing JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("pointing JSON does not match schema: %w", err)
	}
	return nil
}
