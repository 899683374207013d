package toolschema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompileAll compiles every tool's schema through a real JSON Schema
// implementation at startup, catching a malformed schema literal before
// the server ever advertises it to a host. extractAdvertised mirrors the
// scrape tool's conditional extractPrompt property.
func CompileAll(extractAdvertised bool) error {
	schemas := map[string]json.RawMessage{
		"scrape": ScrapeSchema(extractAdvertised),
		"map":    MapSchema(),
		"crawl":  CrawlSchema(),
		"search": SearchSchema(),
	}
	for name, raw := range schemas {
		c := jsonschema.NewCompiler()
		res, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("toolschema: %s: decode: %w", name, err)
		}
		url := "mem://" + name + ".json"
		if err := c.AddResource(url, res); err != nil {
			return fmt.Errorf("toolschema: %s: add resource: %w", name, err)
		}
		if _, err := c.Compile(url); err != nil {
			return fmt.Errorf("toolschema: %s: compile: %w", name, err)
		}
	}
	return nil
}
