package chromedp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/easel/pkg/ports"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	backend "github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// keys maps key names to their DevTools key codes.
var keys = map[string]string{
	"Enter":     kb.Enter,
	"Escape":    kb.Escape,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
}

// Surface is the top-level document of a tab or the document of one of its iframes.
type Surface struct {
	page   *Page
	id     string
	iframe *cdp.Node // nil for the top-level document
}

var _ ports.Surface = (*Surface)(nil)

// ID returns "document" or "frame:<frame id>".
func (s *Surface) ID() string { return s.id }

func (s *Surface) query() []backend.QueryOption {
	opts := []backend.QueryOption{backend.ByQuery}
	if s.iframe != nil {
		opts = append(opts, backend.FromNode(s.iframe))
	}
	return opts
}

// WaitVisible blocks until selector is visible.
func (s *Surface) WaitVisible(ctx context.Context, selector string) error {
	return s.page.run(ctx, backend.WaitVisible(selector, s.query()...))
}

// WaitHidden polls until no visible element matches selector.
func (s *Surface) WaitHidden(ctx context.Context, selector string) error {
	lim := s.page.poller()
	for {
		n, err := s.Count(ctx, selector)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for %q to hide: %w", selector, err)
		}
	}
}

// Count returns the number of visible matches.
func (s *Surface) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := s.call(ctx, countFn, []any{selector}, &n)
	return n, err
}

// Click waits for selector and clicks it.
func (s *Surface) Click(ctx context.Context, selector string) error {
	if err := s.page.slowMo.Wait(ctx); err != nil {
		return err
	}
	return s.page.run(ctx, backend.Click(selector, append(s.query(), backend.NodeVisible)...))
}

// Fill focuses selector, selects its content and types text over it.
func (s *Surface) Fill(ctx context.Context, selector, text string) error {
	if err := s.Click(ctx, selector); err != nil {
		return err
	}
	if err := s.call(ctx, selectActiveFn, nil, nil); err != nil {
		return err
	}
	if text == "" {
		return s.Press(ctx, "Backspace")
	}
	return s.page.run(ctx, input.InsertText(text))
}

// Press sends a named key to the focused element.
func (s *Surface) Press(ctx context.Context, key string) error {
	code, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := s.page.slowMo.Wait(ctx); err != nil {
		return err
	}
	return s.page.run(ctx, backend.KeyEvent(code))
}

// Text waits for selector and returns its text.
func (s *Surface) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.page.run(ctx, backend.Text(selector, &text, append(s.query(), backend.NodeVisible)...))
	return text, err
}

// TextAll returns the text of every match.
func (s *Surface) TextAll(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	err := s.call(ctx, textAllFn, []any{selector}, &texts)
	return texts, err
}

// Attribute waits for selector and returns the named attribute, empty when absent.
func (s *Surface) Attribute(ctx context.Context, selector, name string) (string, error) {
	var (
		value string
		ok    bool
	)
	err := s.page.run(ctx, backend.AttributeValue(selector, name, &value, &ok, append(s.query(), backend.NodeReady)...))
	return value, err
}

// Evaluate runs an expression in the surface's window.
func (s *Surface) Evaluate(ctx context.Context, script string, out any) error {
	return s.call(ctx, expressionFn(script), nil, out)
}

// call applies fn to the surface document with args and decodes the result into out.
func (s *Surface) call(ctx context.Context, fn string, args []any, out any) error {
	if s.iframe == nil {
		expr, err := applyExpression(fn, "document", args)
		if err != nil {
			return err
		}
		return s.page.run(ctx, backend.Evaluate(expr, out))
	}

	decl, err := applyExpression(fn, "this", args)
	if err != nil {
		return err
	}
	return s.page.run(ctx, backend.ActionFunc(func(ctx context.Context) error {
		doc, err := s.contentDocument(ctx)
		if err != nil {
			return err
		}
		obj, err := dom.ResolveNode().WithBackendNodeID(doc.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolving frame document: %w", err)
		}
		res, exc, err := runtime.CallFunctionOn("function() { return " + decl + "; }").
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return scriptError(exc)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

// contentDocument returns the current document node of the iframe.
func (s *Surface) contentDocument(ctx context.Context) (*cdp.Node, error) {
	if s.iframe.ContentDocument != nil {
		return s.iframe.ContentDocument, nil
	}
	node, err := dom.DescribeNode().WithBackendNodeID(s.iframe.BackendNodeID).WithDepth(1).WithPierce(true).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing frame: %w", err)
	}
	if node.ContentDocument == nil {
		return nil, errors.New("frame has no document")
	}
	return node.ContentDocument, nil
}

func scriptError(exc *runtime.ExceptionDetails) error {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return fmt.Errorf("script failed: %s", exc.Exception.Description)
	}
	return fmt.Errorf("script failed: %s", exc.Text)
}
