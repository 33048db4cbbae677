package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestSchemaToGenAIConvertsNestedObject(t *testing.T) {
	s := &Schema{
		Type:     "object",
		Required: []string{"technologies"},
		Properties: map[string]*Schema{
			"technologies": {
				Type:  "array",
				Items: &Schema{Type: "string"},
			},
			"difficulty": {
				Type: "string",
				Enum: []string{"beginner", "intermediate", "advanced"},
			},
		},
	}

	out := s.toGenAI()
	require.Equal(t, genai.Type("object"), out.Type)
	require.Equal(t, []string{"technologies"}, out.Required)
	require.Equal(t, genai.Type("array"), out.Properties["technologies"].Type)
	require.Equal(t, genai.Type("string"), out.Properties["technologies"].Items.Type)
	require.Equal(t, []string{"beginner", "intermediate", "advanced"}, out.Properties["difficulty"].Enum)
}

func TestSchemaToGenAINilIsNil(t *testing.T) {
	var s *Schema
	require.Nil(t, s.toGenAI())
}
