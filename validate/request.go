// Package validate enforces the tool parameter rules that the flat MCP
// tool schema can't express: struct tags for per-field shape, and a
// handful of cross-field and tagged-union rules checked by hand.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/use-agent/fetchmcp/models"
)

// Validator holds one reflection-cached validator.Validate instance,
// grounded on the teacher's schema package's one-per-process convention
// rather than constructing a fresh instance per request.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with struct-tag validation wired to models'
// validate:"..." tags.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (val *Validator) fail(err error) *models.AcquireError {
	if ferrs, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(ferrs))
		for _, fe := range ferrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return &models.AcquireError{Kind: models.ErrValidation, Message: strings.Join(msgs, "; ")}
	}
	return &models.AcquireError{Kind: models.ErrValidation, Message: err.Error()}
}

// Scrape validates a ScrapeRequest's struct tags and its browser-action
// tagged union, whose per-variant required fields the flat schema leaves
// to runtime enforcement (models.Action.RequiredFields).
func (val *Validator) Scrape(req *models.ScrapeRequest) *models.AcquireError {
	if err := val.v.Struct(req); err != nil {
		return val.fail(err)
	}
	for i, a := range req.Actions {
		if missing := missingActionFields(a); len(missing) > 0 {
			return &models.AcquireError{
				Kind: models.ErrValidation,
				Message: fmt.Sprintf("actions[%d] (%s) missing required field(s): %s",
					i, a.Type, strings.Join(missing, ", ")),
			}
		}
	}
	return nil
}

// Map validates a MapRequest's struct tags.
func (val *Validator) Map(req *models.MapRequest) *models.AcquireError {
	if err := val.v.Struct(req); err != nil {
		return val.fail(err)
	}
	return nil
}

// Crawl validates a CrawlRequest's struct tags plus the cross-field rule
// the schema can't express: exactly one of URL (start a job) and JobID
// (address an existing one) may be set, and Cancel requires a JobID.
func (val *Validator) Crawl(req *models.CrawlRequest) *models.AcquireError {
	if err := val.v.Struct(req); err != nil {
		return val.fail(err)
	}
	switch {
	case req.URL == "" && req.JobID == "":
		return &models.AcquireError{Kind: models.ErrValidation, Message: "crawl requires either url or jobId"}
	case req.URL != "" && req.JobID != "":
		return &models.AcquireError{Kind: models.ErrValidation, Message: "crawl accepts either url or jobId, not both"}
	case req.Cancel && req.JobID == "":
		return &models.AcquireError{Kind: models.ErrValidation, Message: "cancel requires jobId"}
	}
	return nil
}

// Search validates a SearchRequest's struct tags.
func (val *Validator) Search(req *models.SearchRequest) *models.AcquireError {
	if err := val.v.Struct(req); err != nil {
		return val.fail(err)
	}
	return nil
}

// missingActionFields reports which of an action variant's required
// fields are absent, driven by the variant's own declared list rather
// than a second copy of the switch here.
func missingActionFields(a models.Action) []string {
	var missing []string
	for _, field := range a.RequiredFields() {
		if !actionFieldSet(a, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func actionFieldSet(a models.Action, field string) bool {
	switch field {
	case "milliseconds":
		return a.Milliseconds > 0
	case "selector":
		return a.Selector != ""
	case "direction":
		return a.Direction != ""
	case "code":
		return a.Code != ""
	case "value":
		return a.Value != ""
	default:
		return true
	}
}
