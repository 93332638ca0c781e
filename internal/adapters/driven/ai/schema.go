package ai

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ensure SchemaValidator implements the interface.
var _ driven.ReportValidator = (*SchemaValidator)(nil)

// ReportSchema is the JSON Schema every research report must satisfy.
const ReportSchema = `{
  "type": "object",
  "required": ["shortSummary", "extendedSummary", "insights", "quotes", "nextSteps", "quiz"],
  "properties": {
    "shortSummary": {
      "type": "object",
      "required": ["content", "citations"],
      "properties": {
        "content": {"type": "string"},
        "citations": {"type": "array", "items": {"$ref": "#/$defs/citation"}}
      }
    },
    "extendedSummary": {"type": "string"},
    "insights": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["content", "citation"],
        "properties": {
          "content": {"type": "string"},
          "citation": {"$ref": "#/$defs/citation"}
        }
      }
    },
    "quotes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["content", "citation"],
        "properties": {
          "content": {"type": "string"},
          "citation": {"$ref": "#/$defs/citation"}
        }
      }
    },
    "nextSteps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["content", "explanation"],
        "properties": {
          "content": {"type": "string"},
          "explanation": {"type": "string"}
        }
      }
    },
    "quiz": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "options", "correctAnswer", "explanation", "citation"],
        "properties": {
          "question": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}, "minItems": 2},
          "correctAnswer": {"type": "string"},
          "explanation": {"type": "string"},
          "citation": {"$ref": "#/$defs/citation"}
        }
      }
    }
  },
  "$defs": {
    "citation": {
      "type": "object",
      "required": ["sourceTitle", "text"],
      "properties": {
        "sourceTitle": {"type": "string"},
        "text": {"type": "string"},
        "page": {"type": ["integer", "null"]}
      }
    }
  }
}`

// SchemaValidator validates reports against ReportSchema.
type SchemaValidator struct {
	raw      json.RawMessage
	resolved *jsonschema.Resolved
}

// NewSchemaValidator resolves ReportSchema once.
func NewSchemaValidator() (*SchemaValidator, error) {
	return newSchemaValidator(json.RawMessage(ReportSchema))
}

func newSchemaValidator(raw json.RawMessage) (*SchemaValidator, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parse report schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve report schema: %w", err)
	}
	return &SchemaValidator{raw: raw, resolved: resolved}, nil
}

// Schema returns the schema document.
func (v *SchemaValidator) Schema() json.RawMessage {
	return v.raw
}

// Validate checks a JSON document against the schema.
func (v *SchemaValidator) Validate(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	if err := v.resolved.Validate(instance); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}
