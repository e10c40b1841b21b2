package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/easel/pkg/ports"
)

// Element is a scripted UI element. Selectors are matched literally.
type Element struct {
	Text   string
	Attrs  map[string]string
	Hidden bool
}

// Action records one interaction with a surface.
type Action struct {
	Kind     string // click, fill, press or evaluate
	Selector string
	Value    string
}

// ClickHandler reacts to a click on a selector.
type ClickHandler func(s *Surface) error

// FillHandler reacts to a fill of a selector with text.
type FillHandler func(s *Surface, text string) error

// PressHandler reacts to a key press.
type PressHandler func(s *Surface) error

// EvaluateHandler returns the result of a script.
type EvaluateHandler func(s *Surface, script string) (any, error)

// Surface is a scripted document. Safe for concurrent use.
type Surface struct {
	id string

	mu       sync.Mutex
	elements map[string][]*Element
	clicks   map[string]ClickHandler
	fills    map[string]FillHandler
	presses  map[string]PressHandler
	evaluate EvaluateHandler
	actions  []Action
	focus    string
	changed  chan struct{}
}

var _ ports.Surface = (*Surface)(nil)

// NewSurface creates an empty surface.
func NewSurface(id string) *Surface {
	return &Surface{
		id:       id,
		elements: make(map[string][]*Element),
		clicks:   make(map[string]ClickHandler),
		fills:    make(map[string]FillHandler),
		presses:  make(map[string]PressHandler),
		changed:  make(chan struct{}),
	}
}

// ID returns the surface identity.
func (s *Surface) ID() string { return s.id }

// notify wakes every waiter. Callers hold s.mu.
func (s *Surface) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Set replaces the elements matching selector with a single visible element.
func (s *Surface) Set(selector string, el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := el
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	s.elements[selector] = []*Element{&e}
	s.notify()
}

// Append adds an element under selector.
func (s *Surface) Append(selector string, el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := el
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	s.elements[selector] = append(s.elements[selector], &e)
	s.notify()
}

// add appends an element and returns it for later mutation under s.mu.
func (s *Surface) add(selector string, el Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := el
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	s.elements[selector] = append(s.elements[selector], &e)
	s.notify()
	return &e
}

// update mutates an element under s.mu and wakes waiters.
func (s *Surface) update(el *Element, fn func(el *Element)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(el)
	s.notify()
}

func (s *Surface) countVisible(selector string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visible(selector)), nil
}

// value returns the value attribute of the first element under selector.
func (s *Surface) value(selector string) string {
	return s.attr(selector, "value")
}

func (s *Surface) attr(selector, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.elements[selector]
	if len(els) == 0 {
		return ""
	}
	return els[0].Attrs[name]
}

// Focused returns the selector last clicked or filled.
func (s *Surface) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Remove deletes every element under selector.
func (s *Surface) Remove(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, selector)
	s.notify()
}

// Show makes the elements under selector visible, creating one if none exist.
func (s *Surface) Show(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.elements[selector]
	if len(els) == 0 {
		s.elements[selector] = []*Element{{Attrs: make(map[string]string)}}
	}
	for _, el := range els {
		el.Hidden = false
	}
	s.notify()
}

// Hide hides the elements under selector.
func (s *Surface) Hide(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, el := range s.elements[selector] {
		el.Hidden = true
	}
	s.notify()
}

// SetAttr sets an attribute on the first element under selector, creating it if needed.
func (s *Surface) SetAttr(selector, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.elements[selector]
	if len(els) == 0 {
		els = []*Element{{Attrs: make(map[string]string)}}
		s.elements[selector] = els
	}
	els[0].Attrs[name] = value
	s.notify()
}

// SetText sets the text of the first element under selector, creating it if needed.
func (s *Surface) SetText(selector, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.elements[selector]
	if len(els) == 0 {
		els = []*Element{{Attrs: make(map[string]string)}}
		s.elements[selector] = els
	}
	els[0].Text = text
	s.notify()
}

// OnClick registers a handler run after selector is clicked.
func (s *Surface) OnClick(selector string, h ClickHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks[selector] = h
}

// OnFill registers a handler run after selector is filled.
func (s *Surface) OnFill(selector string, h FillHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills[selector] = h
}

// OnPress registers a handler run after key is pressed.
func (s *Surface) OnPress(key string, h PressHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presses[key] = h
}

// OnEvaluate registers the script handler.
func (s *Surface) OnEvaluate(h EvaluateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluate = h
}

// Actions returns the recorded interactions in order.
func (s *Surface) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// Clicked returns how many times selector was clicked.
func (s *Surface) Clicked(selector string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.actions {
		if a.Kind == "click" && a.Selector == selector {
			n++
		}
	}
	return n
}

func (s *Surface) visible(selector string) []*Element {
	var out []*Element
	for _, el := range s.elements[selector] {
		if !el.Hidden {
			out = append(out, el)
		}
	}
	return out
}

// waitFor blocks until cond holds under the lock or ctx is done.
func (s *Surface) waitFor(ctx context.Context, cond func() bool) error {
	for {
		s.mu.Lock()
		ok := cond()
		changed := s.changed
		s.mu.Unlock()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// first waits for a visible element matching selector and returns it.
func (s *Surface) first(ctx context.Context, selector string) (*Element, error) {
	var el *Element
	err := s.waitFor(ctx, func() bool {
		if v := s.visible(selector); len(v) > 0 {
			el = v[0]
			return true
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return el, nil
}

func (s *Surface) record(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
}

// WaitVisible blocks until selector has a visible element.
func (s *Surface) WaitVisible(ctx context.Context, selector string) error {
	_, err := s.first(ctx, selector)
	return err
}

// WaitHidden blocks until selector has no visible element.
func (s *Surface) WaitHidden(ctx context.Context, selector string) error {
	err := s.waitFor(ctx, func() bool { return len(s.visible(selector)) == 0 })
	if err != nil {
		return fmt.Errorf("waiting for %q to hide: %w", selector, err)
	}
	return nil
}

// Count returns the number of visible elements under selector.
func (s *Surface) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visible(selector)), nil
}

// Click waits for selector, records the click and runs its handler.
func (s *Surface) Click(ctx context.Context, selector string) error {
	if _, err := s.first(ctx, selector); err != nil {
		return err
	}
	s.record(Action{Kind: "click", Selector: selector})

	s.mu.Lock()
	s.focus = selector
	h := s.clicks[selector]
	s.mu.Unlock()
	if h != nil {
		return h(s)
	}
	return nil
}

// Fill waits for selector, replaces its text and value, then runs its handler.
func (s *Surface) Fill(ctx context.Context, selector, text string) error {
	el, err := s.first(ctx, selector)
	if err != nil {
		return err
	}
	s.record(Action{Kind: "fill", Selector: selector, Value: text})

	s.mu.Lock()
	s.focus = selector
	el.Text = text
	el.Attrs["value"] = text
	h := s.fills[selector]
	s.notify()
	s.mu.Unlock()
	if h != nil {
		return h(s, text)
	}
	return nil
}

// Press records a key press and runs its handler.
func (s *Surface) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record(Action{Kind: "press", Value: key})

	s.mu.Lock()
	h := s.presses[key]
	s.mu.Unlock()
	if h != nil {
		return h(s)
	}
	return nil
}

// Text waits for selector and returns the text of the first visible match.
func (s *Surface) Text(ctx context.Context, selector string) (string, error) {
	el, err := s.first(ctx, selector)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return el.Text, nil
}

// TextAll returns the text of every visible element under selector.
func (s *Surface) TextAll(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	els := s.visible(selector)
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.Text)
	}
	return out, nil
}

// Attribute waits for selector and returns an attribute of the first visible match.
func (s *Surface) Attribute(ctx context.Context, selector, name string) (string, error) {
	el, err := s.first(ctx, selector)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return el.Attrs[name], nil
}

// Evaluate runs the registered script handler and decodes its result into out through JSON.
func (s *Surface) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record(Action{Kind: "evaluate", Value: script})

	s.mu.Lock()
	h := s.evaluate
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	v, err := h(s, script)
	if err != nil || out == nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding script result: %w", err)
	}
	return json.Unmarshal(raw, out)
}
