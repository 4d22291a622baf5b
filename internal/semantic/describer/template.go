// Package describer provides TemplateDescriber, an external Describer
// implementation that prompts a language model for a SemanticFeature,
// following the conventions of prompt-capping convention (internal/context/tokens.go's
// ~4-chars-per-token calibration) and its GenAI client usage
// (internal/embedding/genai.go).
package describer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"rpg/internal/rpglog"
	"rpg/internal/semantic"
)

const promptOverheadChars = 200 * 4 // ~200 tokens at ~4 chars/token

// TemplateDescriber renders a fixed prompt template around the entity's
// capped source snippet and asks a genai model to return a JSON
// description, used as the Describer implementation when an operator opts
// into LLM-assisted semantics.
type TemplateDescriber struct {
	client *genai.Client
	model  string
}

// NewTemplateDescriber constructs a TemplateDescriber bound to model (e.g.
// "gemini-2.0-flash").
func NewTemplateDescriber(ctx context.Context, apiKey, model string) (*TemplateDescriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("describer: GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("describer: create GenAI client: %w", err)
	}
	return &TemplateDescriber{client: client, model: model}, nil
}

// Describe implements semantic.Describer.
func (d *TemplateDescriber) Describe(ctx context.Context, in semantic.DescribeInput) (semantic.DescribeOutput, error) {
	timer := rpglog.StartTimer(rpglog.CategorySemantic, "TemplateDescriber.Describe")
	defer timer.Stop()

	prompt := buildPrompt(in)
	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars]
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, nil)
	if err != nil {
		return semantic.DescribeOutput{}, fmt.Errorf("describer: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return semantic.DescribeOutput{}, fmt.Errorf("describer: empty response")
	}
	return parseResponse(text)
}

func buildPrompt(in semantic.DescribeInput) string {
	snippet := semantic.PromptSnippet(in.SourceSnippet)
	var b strings.Builder
	b.WriteString("Describe the following code entity in one sentence and list 3-6 keywords.\n")
	b.WriteString("Respond as JSON: {\"description\": str, \"keywords\": [str]}\n")
	fmt.Fprintf(&b, "kind: %s\nname: %s\nfile: %s\n", in.Kind, in.Name, in.FilePath)
	if in.ParentQualName != "" {
		fmt.Fprintf(&b, "parent: %s\n", in.ParentQualName)
	}
	if snippet != "" {
		b.WriteString("source:\n")
		b.WriteString(snippet)
	}
	return b.String()
}

func parseResponse(text string) (semantic.DescribeOutput, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end < start {
		return semantic.DescribeOutput{}, fmt.Errorf("describer: response is not JSON: %q", text)
	}
	var out semantic.DescribeOutput
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return semantic.DescribeOutput{}, fmt.Errorf("describer: parse response: %w", err)
	}
	return out, nil
}

// maxPromptChars bounds the whole prompt (snippet + template text) to
// roughly 2000 tokens of snippet plus 200 tokens of overhead, per spec §6.
const maxPromptChars = 2000*4 + promptOverheadChars
