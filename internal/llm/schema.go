package llm

import "google.golang.org/genai"

// Schema is a minimal, JSON-Schema-shaped description of the structured
// output an LLM call must produce. Callers build one per call site
// (content analysis, intent extraction, explanation) instead of
// hand-writing genai.Schema values.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// toGenAI converts Schema into the SDK's typed Schema representation.
func (s *Schema) toGenAI() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.toGenAI()
		}
	}
	if s.Items != nil {
		out.Items = s.Items.toGenAI()
	}
	return out
}
