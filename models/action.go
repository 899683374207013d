package models

// ActionType discriminates one variant of a browser-action sequence step.
// The public tool schema flattens the tagged union into one object carrying
// every variant's fields as optional, with Type as the required discriminator;
// per-variant required-field rules are enforced by validate/, not the schema.
type ActionType string

const (
	ActionWait       ActionType = "wait"
	ActionClick      ActionType = "click"
	ActionScroll     ActionType = "scroll"
	ActionExecuteJS  ActionType = "execute_js"
	ActionScrape     ActionType = "scrape"
	ActionScreenshot ActionType = "screenshot"
	ActionSelect     ActionType = "select"
	ActionInput      ActionType = "type"
)

// Action is one step of a scrape request's browser-action sequence.
// Exactly the fields relevant to Type are populated; validate/ rejects a
// variant missing its required fields.
type Action struct {
	Type ActionType `json:"type" validate:"required,oneof=wait click scroll execute_js scrape screenshot select type"`

	// wait
	Milliseconds int `json:"milliseconds,omitempty"`

	// click, select, type
	Selector string `json:"selector,omitempty"`

	// scroll
	Amount    int    `json:"amount,omitempty"`
	Direction string `json:"direction,omitempty"`

	// execute_js
	Code string `json:"code,omitempty"`

	// select, type
	Value string `json:"value,omitempty"`
}

// RequiredFields reports the variant's required field names, used by
// validate/ to enforce per-variant rules the flat schema can't express.
func (a Action) RequiredFields() []string {
	switch a.Type {
	case ActionWait:
		return []string{"milliseconds"}
	case ActionClick:
		return []string{"selector"}
	case ActionScroll:
		return []string{"direction"}
	case ActionExecuteJS:
		return []string{"code"}
	case ActionSelect, ActionInput:
		return []string{"selector", "value"}
	case ActionScrape, ActionScreenshot:
		return nil
	default:
		return nil
	}
}
