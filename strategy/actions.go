package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/fetchmcp/models"
)

// actionTimeout is the per-action deadline.
const actionTimeout = 10 * time.Second

// executeActions runs the ordered browser-action sequence on page.
func executeActions(ctx context.Context, page *rod.Page, actions []models.Action) error {
	for i, action := range actions {
		if err := executeSingleAction(ctx, page, action); err != nil {
			return models.NewError(models.ErrContent,
				fmt.Sprintf("action %d (%s) failed after %d completed", i, action.Type, i), err)
		}
	}
	return nil
}

func executeSingleAction(ctx context.Context, page *rod.Page, action models.Action) error {
	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	p := page.Context(actionCtx)

	switch action.Type {
	case models.ActionWait:
		return execWait(p, action)
	case models.ActionClick:
		return execClick(p, action)
	case models.ActionScroll:
		return execScroll(p, action)
	case models.ActionExecuteJS:
		return execJS(p, action)
	case models.ActionSelect:
		return execSelect(p, action)
	case models.ActionInput:
		return execInput(p, action)
	case models.ActionScrape, models.ActionScreenshot:
		// Markers handled by the caller after the sequence completes.
		return nil
	default:
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
}

func execWait(p *rod.Page, action models.Action) error {
	if action.Selector != "" {
		return p.WaitElementsMoreThan(action.Selector, 0)
	}
	if action.Milliseconds > 0 {
		d := time.Duration(action.Milliseconds) * time.Millisecond
		select {
		case <-time.After(d):
			return nil
		case <-p.GetContext().Done():
			return p.GetContext().Err()
		}
	}
	return nil
}

func execClick(p *rod.Page, action models.Action) error {
	if action.Selector == "" {
		return fmt.Errorf("click action requires a selector")
	}
	el, err := p.Element(action.Selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", action.Selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func execScroll(p *rod.Page, action models.Action) error {
	amount := action.Amount
	if amount <= 0 {
		amount = 1
	}

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	viewportHeight := res.Value.Int()

	for i := 0; i < amount; i++ {
		var scrollDelta int
		if action.Direction == "up" {
			scrollDelta = -viewportHeight
		} else {
			scrollDelta = viewportHeight
		}
		if err := p.Mouse.Scroll(0, float64(scrollDelta), 0); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func execJS(p *rod.Page, action models.Action) error {
	if action.Code == "" {
		return fmt.Errorf("execute_js action requires code")
	}
	_, err := p.Eval(action.Code)
	return err
}

func execSelect(p *rod.Page, action models.Action) error {
	if action.Selector == "" {
		return fmt.Errorf("select action requires a selector")
	}
	el, err := p.Element(action.Selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", action.Selector, err)
	}
	return el.Select([]string{action.Value}, true, rod.SelectorTypeText)
}

func execInput(p *rod.Page, action models.Action) error {
	if action.Selector == "" {
		return fmt.Errorf("type action requires a selector")
	}
	el, err := p.Element(action.Selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", action.Selector, err)
	}
	return el.Input(action.Value)
}
