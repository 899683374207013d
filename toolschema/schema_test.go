package toolschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/toolschema"
)

func allSchemas(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	return map[string]json.RawMessage{
		"scrape_with_extract":    toolschema.ScrapeSchema(true),
		"scrape_without_extract": toolschema.ScrapeSchema(false),
		"map":                    toolschema.MapSchema(),
		"crawl":                  toolschema.CrawlSchema(),
		"search":                 toolschema.SearchSchema(),
	}
}

func TestSchemasContainNoUnionCombinatorsAtAnyDepth(t *testing.T) {
	for name, raw := range allSchemas(t) {
		var decoded any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assertNoUnionKeys(t, name, decoded)
	}
}

func assertNoUnionKeys(t *testing.T, path string, v any) {
	t.Helper()
	switch m := v.(type) {
	case map[string]interface{}:
		for _, forbidden := range []string{"oneOf", "anyOf", "allOf"} {
			_, ok := m[forbidden]
			assert.False(t, ok, "%s contains forbidden key %q", path, forbidden)
		}
		for k, sub := range m {
			assertNoUnionKeys(t, path+"."+k, sub)
		}
	case []interface{}:
		for i, sub := range m {
			assertNoUnionKeys(t, path, sub)
			_ = i
		}
	}
}

func TestScrapeSchemaOmitsExtractPromptWhenNoExtractorConfigured(t *testing.T) {
	raw := toolschema.ScrapeSchema(false)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	props := decoded["properties"].(map[string]interface{})
	_, present := props["extractPrompt"]
	assert.False(t, present)
}

func TestScrapeSchemaIncludesExtractPromptWhenExtractorConfigured(t *testing.T) {
	raw := toolschema.ScrapeSchema(true)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	props := decoded["properties"].(map[string]interface{})
	_, present := props["extractPrompt"]
	assert.True(t, present)
}

func TestCompileAllSucceeds(t *testing.T) {
	assert.NoError(t, toolschema.CompileAll(true))
	assert.NoError(t, toolschema.CompileAll(false))
}

func TestCrawlSchemaRequiresNeitherFieldAtSchemaLevel(t *testing.T) {
	raw := toolschema.CrawlSchema()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	_, hasRequired := decoded["required"]
	assert.False(t, hasRequired, "crawl's url/jobId XOR is enforced by validate, not the schema")
}
