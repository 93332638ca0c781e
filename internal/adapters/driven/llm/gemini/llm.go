// Package gemini provides an LLM service adapter for Google Gemini using
// the generative-ai-go client.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string
}

// LLMService provides LLM operations using Gemini.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

// Generate produces text completion from a prompt. A response schema is
// converted to the native Gemini schema with a JSON response MIME type.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	model := s.client.GenerativeModel(s.model)
	if err := configure(model, opts); err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return responseText(resp)
}

// configure applies generation options to a model handle.
func configure(model *genai.GenerativeModel, opts driven.GenerateOptions) error {
	if opts.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(opts.SystemPrompt)}}
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		model.SetTemperature(float32(opts.Temperature))
	}
	if len(opts.StopWords) > 0 {
		model.StopSequences = opts.StopWords
	}
	if len(opts.ResponseSchema) > 0 {
		schema, err := ConvertSchema(opts.ResponseSchema)
		if err != nil {
			return fmt.Errorf("gemini: convert schema: %w", err)
		}
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", fmt.Errorf("gemini: candidate has no content (finish reason %v)", resp.Candidates[0].FinishReason)
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini: no text content returned")
	}
	return b.String(), nil
}

// jsonSchema is the subset of JSON Schema that Gemini understands.
type jsonSchema struct {
	Type        any                    `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Items       *jsonSchema            `json:"items"`
	Required    []string               `json:"required"`
	Enum        []string               `json:"enum"`
	Ref         string                 `json:"$ref"`
	Defs        map[string]*jsonSchema `json:"$defs"`
}

const defsPrefix = "#/$defs/"

// ConvertSchema maps a JSON Schema document onto a genai.Schema.
// Local "#/$defs/" references are inlined. Keywords genai.Schema has no
// field for, such as minItems and maxItems, are ignored.
func ConvertSchema(raw json.RawMessage) (*genai.Schema, error) {
	var js jsonSchema
	if err := json.Unmarshal(raw, &js); err != nil {
		return nil, err
	}
	return convert(&js, js.Defs, 0)
}

// maxRefDepth bounds reference expansion for recursive schemas.
const maxRefDepth = 16

func convert(js *jsonSchema, defs map[string]*jsonSchema, depth int) (*genai.Schema, error) {
	if js == nil {
		return nil, nil
	}
	if js.Ref != "" {
		if depth >= maxRefDepth {
			return nil, fmt.Errorf("reference %q nested too deeply", js.Ref)
		}
		name, ok := strings.CutPrefix(js.Ref, defsPrefix)
		target := defs[name]
		if !ok || target == nil {
			return nil, fmt.Errorf("unresolved reference %q", js.Ref)
		}
		return convert(target, defs, depth+1)
	}

	typ, nullable, err := schemaType(js.Type)
	if err != nil {
		return nil, err
	}

	out := &genai.Schema{
		Type:        typ,
		Description: js.Description,
		Nullable:    nullable,
		Required:    js.Required,
		Enum:        js.Enum,
	}
	if len(js.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(js.Properties))
		for name, prop := range js.Properties {
			converted, err := convert(prop, defs, depth)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			out.Properties[name] = converted
		}
	}
	if js.Items != nil {
		items, err := convert(js.Items, defs, depth)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	}
	return out, nil
}

// schemaType accepts "type" as a string or a list such as ["integer", "null"].
func schemaType(v any) (genai.Type, bool, error) {
	var names []string
	switch t := v.(type) {
	case nil:
		return genai.TypeUnspecified, false, nil
	case string:
		names = []string{t}
	case []any:
		for _, n := range t {
			s, ok := n.(string)
			if !ok {
				return 0, false, fmt.Errorf("invalid type %v", v)
			}
			names = append(names, s)
		}
	default:
		return 0, false, fmt.Errorf("invalid type %v", v)
	}

	typ := genai.TypeUnspecified
	nullable := false
	for _, name := range names {
		switch name {
		case "null":
			nullable = true
		case "string":
			typ = genai.TypeString
		case "number":
			typ = genai.TypeNumber
		case "integer":
			typ = genai.TypeInteger
		case "boolean":
			typ = genai.TypeBoolean
		case "array":
			typ = genai.TypeArray
		case "object":
			typ = genai.TypeObject
		default:
			return 0, false, fmt.Errorf("unknown type %q", name)
		}
	}
	return typ, nullable, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.GenerativeModel(s.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client connection.
func (s *LLMService) Close() error {
	return s.client.Close()
}
