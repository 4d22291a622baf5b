package describer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/semantic"
)

func TestBuildPrompt_IncludesKindNameFileAndSnippet(t *testing.T) {
	in := semantic.DescribeInput{
		Kind:           "function",
		Name:           "Parse",
		FilePath:       "internal/diffparse/parser.go",
		ParentQualName: "Parser",
		SourceSnippet:  "func Parse() {}",
	}
	prompt := buildPrompt(in)

	assert.Contains(t, prompt, "kind: function")
	assert.Contains(t, prompt, "name: Parse")
	assert.Contains(t, prompt, "file: internal/diffparse/parser.go")
	assert.Contains(t, prompt, "parent: Parser")
	assert.Contains(t, prompt, "func Parse() {}")
	assert.Contains(t, prompt, "JSON")
}

func TestBuildPrompt_OmitsParentLineWhenEmpty(t *testing.T) {
	in := semantic.DescribeInput{Kind: "function", Name: "Parse", FilePath: "x.go"}
	prompt := buildPrompt(in)

	assert.NotContains(t, prompt, "parent:")
}

func TestBuildPrompt_CapsSnippetAtPromptSnippetLimit(t *testing.T) {
	huge := strings.Repeat("a", 20000)
	in := semantic.DescribeInput{Kind: "function", Name: "Big", FilePath: "x.go", SourceSnippet: huge}
	prompt := buildPrompt(in)

	assert.Less(t, len(prompt), len(huge))
}

func TestParseResponse_ParsesWellFormedJSON(t *testing.T) {
	out, err := parseResponse(`{"description": "parses commits", "keywords": ["parse", "commit"]}`)
	require.NoError(t, err)
	assert.Equal(t, "parses commits", out.Description)
	assert.Equal(t, []string{"parse", "commit"}, out.Keywords)
}

func TestParseResponse_StripsSurroundingProseAroundJSON(t *testing.T) {
	text := "Sure, here is the result:\n{\"description\": \"d\", \"keywords\": [\"k\"]}\nHope that helps!"
	out, err := parseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "d", out.Description)
	assert.Equal(t, []string{"k"}, out.Keywords)
}

func TestParseResponse_RejectsNonJSONResponse(t *testing.T) {
	_, err := parseResponse("no braces here")
	assert.Error(t, err)
}

func TestParseResponse_RejectsMalformedJSON(t *testing.T) {
	_, err := parseResponse(`{"description": "d", "keywords": [}`)
	assert.Error(t, err)
}

func TestNewTemplateDescriber_RequiresAPIKey(t *testing.T) {
	_, err := NewTemplateDescriber(nil, "", "gemini-2.0-flash")
	assert.Error(t, err)
}
