package llm

import (
	"github.com/invopop/jsonschema"

	"github.com/umputun/enggist/pkg/domain"
)

// summaryResponse is the structured output requested from the model
type summaryResponse struct {
	Bullets      []string `json:"bullets" jsonschema:"minItems=3,maxItems=7,description=Key takeaways of the post, one sentence each"`
	WhyItMatters string   `json:"whyItMatters" jsonschema:"maxLength=300,description=Why the post matters to practicing engineers"`
	Tags         []string `json:"tags" jsonschema:"minItems=1,maxItems=3,description=Topic tags from the allowed list"`
	Keywords     []string `json:"keywords" jsonschema:"minItems=2,maxItems=7,description=Specific technologies or concepts mentioned"`
}

// responseSchema builds the JSON schema of summaryResponse with tags restricted to the vocabulary
func responseSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(&summaryResponse{})
	schema.Version = ""
	schema.ID = ""

	if tags, ok := schema.Properties.Get("tags"); ok && tags.Items != nil {
		enum := make([]any, 0, len(domain.AllTags()))
		for _, t := range domain.AllTags() {
			enum = append(enum, string(t))
		}
		tags.Items.Enum = enum
	}
	return schema
}
