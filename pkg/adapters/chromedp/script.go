package chromedp

import (
	"encoding/json"
	"fmt"
)

const visibleFn = `(el) => !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length) &&
	getComputedStyle(el).visibility !== 'hidden'`

var countFn = `function(sel) {
	const visible = ` + visibleFn + `;
	return Array.from(this.querySelectorAll(sel)).filter(visible).length;
}`

const textAllFn = `function(sel) {
	return Array.from(this.querySelectorAll(sel)).map((el) => el.innerText);
}`

// selectActiveFn selects the whole content of the focused field.
const selectActiveFn = `function() {
	const el = this.activeElement;
	if (!el) { return; }
	if (typeof el.select === 'function') { el.select(); return; }
	const sel = this.defaultView.getSelection();
	sel.removeAllRanges();
	const range = this.createRange();
	range.selectNodeContents(el);
	sel.addRange(range);
}`

// expressionFn wraps a script expression into a function.
func expressionFn(script string) string {
	return "function() { return (" + script + "); }"
}

// applyExpression builds a call of fn with receiver bound to this and args encoded as JSON.
func applyExpression(fn, receiver string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding script arguments: %w", err)
	}
	return fmt.Sprintf("(%s).apply(%s, %s)", fn, receiver, encoded), nil
}
