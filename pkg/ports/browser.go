package ports

import (
	"context"
	"regexp"

	"github.com/aretw0/easel/pkg/domain"
)

// Response describes the document response of a navigation.
type Response struct {
	URL    string
	Status int
}

// OK reports whether the response carries a successful status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 400
}

// Surface is a document or sub-document (iframe) hosting UI elements.
// Every blocking method waits until the context is done.
type Surface interface {
	// ID identifies the surface. Two resolutions of the same surface return the same ID.
	ID() string

	// WaitVisible blocks until an element matching selector is present and visible.
	WaitVisible(ctx context.Context, selector string) error

	// WaitHidden blocks until no visible element matches selector.
	WaitHidden(ctx context.Context, selector string) error

	// Count returns the number of visible elements matching selector without waiting.
	Count(ctx context.Context, selector string) (int, error)

	// Click waits for selector and clicks the first match.
	Click(ctx context.Context, selector string) error

	// Fill waits for selector and replaces its content with text.
	Fill(ctx context.Context, selector, text string) error

	// Press sends a named key (Enter, Escape, Tab, Backspace) to the focused element.
	Press(ctx context.Context, key string) error

	// Text waits for selector and returns the text of the first match.
	Text(ctx context.Context, selector string) (string, error)

	// TextAll returns the text of every element matching selector without waiting.
	TextAll(ctx context.Context, selector string) ([]string, error)

	// Attribute waits for selector and returns the named attribute of the first match.
	Attribute(ctx context.Context, selector, name string) (string, error)

	// Evaluate runs a script in the surface and decodes the result into out (may be nil).
	Evaluate(ctx context.Context, script string, out any) error
}

// DialogWaiter blocks until a previously armed dialog listener has fired.
// A waiter whose ctx ends first disarms its listener.
type DialogWaiter func(ctx context.Context) error

// Page is a live browser tab (the session handle).
type Page interface {
	// Navigate loads url. The response may be nil when the engine reports none.
	Navigate(ctx context.Context, url string) (*Response, error)

	// Reload reloads the current document.
	Reload(ctx context.Context) (*Response, error)

	// URL returns the current top-level URL.
	URL(ctx context.Context) (string, error)

	// WaitForURL blocks until the top-level URL matches pattern and returns it.
	WaitForURL(ctx context.Context, pattern *regexp.Regexp) (string, error)

	// Document returns the top-level document surface.
	Document() Surface

	// Frame locates the iframe matching selector and resolves its sub-document.
	Frame(ctx context.Context, selector string) (Surface, error)

	// OnceDialog arms a one-shot listener for the next dialog, accepting or dismissing it.
	// The returned disarm func removes the listener if it has not fired; it is idempotent.
	OnceDialog(accept bool) (wait DialogWaiter, disarm func())

	// Close releases the tab.
	Close(ctx context.Context) error
}

// PageOptions configures a new page.
type PageOptions struct {
	Viewport domain.Viewport
}

// Browser opens pages.
type Browser interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
}
