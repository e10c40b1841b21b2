package chromedp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyExpression(t *testing.T) {
	expr, err := applyExpression(countFn, "document", []any{`a[href="x"]`})
	require.NoError(t, err)
	assert.Contains(t, expr, `.apply(document, ["a[href=\"x\"]"])`)

	expr, err = applyExpression(expressionFn("1 + 1"), "this", nil)
	require.NoError(t, err)
	assert.Equal(t, "(function() { return (1 + 1); }).apply(this, [])", expr)

	_, err = applyExpression(textAllFn, "document", []any{make(chan int)})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	for _, key := range []string{"Enter", "Escape", "Tab", "Backspace"} {
		assert.Contains(t, keys, key)
	}
	s := &Surface{page: newPage(context.Background(), func() {}, logging.NewNop(), time.Millisecond, 0)}
	assert.ErrorContains(t, s.Press(context.Background(), "F13"), "unsupported key")
}

func TestViewportSizes(t *testing.T) {
	desktop := viewportSizes[domain.ViewportDesktop]
	mobile := viewportSizes[domain.ViewportMobile]
	assert.Greater(t, desktop[0], desktop[1], "desktop is landscape")
	assert.Less(t, mobile[0], mobile[1], "mobile is portrait")
}

func TestPacer(t *testing.T) {
	ctx := context.Background()
	free := pacer(0)
	for i := 0; i < 3; i++ {
		require.NoError(t, free.Wait(ctx))
	}

	slow := pacer(time.Hour)
	require.NoError(t, slow.Wait(ctx), "the first event passes")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx))
}

func TestPage_Closed(t *testing.T) {
	p := newPage(context.Background(), func() {}, logging.NewNop(), time.Millisecond, 0)
	assert.Equal(t, "document", p.Document().ID())
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()), "closing twice is a no-op")

	ctx := context.Background()
	_, err := p.Navigate(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrPageClosed)
	_, err = p.URL(ctx)
	assert.ErrorIs(t, err, ErrPageClosed)
	_, err = p.Frame(ctx, "iframe")
	assert.ErrorIs(t, err, ErrPageClosed)
	assert.ErrorIs(t, p.Document().Click(ctx, "button"), ErrPageClosed)
	_, err = p.Document().Count(ctx, "button")
	assert.ErrorIs(t, err, ErrPageClosed)
}

func TestPage_OnceDialogHonorsContext(t *testing.T) {
	p := newPage(context.Background(), func() {}, logging.NewNop(), time.Millisecond, 0)
	wait, _ := p.OnceDialog(true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wait(ctx), context.DeadlineExceeded)
	assert.Empty(t, p.armed, "a timed out waiter disarms its listener")

	_, disarm := p.OnceDialog(false)
	disarm()
	disarm()
	assert.Empty(t, p.armed)
}

const fixture = `<!doctype html>
<html><body>
<h1 class="title">Outer</h1>
<iframe class="is-loaded" srcdoc="<div contenteditable class='block'>inside</div><p hidden class='gone'>x</p>"></iframe>
<button id="ask" onclick="this.textContent = confirm('sure?') ? 'yes' : 'no'">ask</button>
</body></html>`

// TestBrowser drives a local Chrome. Set EASEL_CHROME_TESTS=1 to run it.
func TestBrowser(t *testing.T) {
	if os.Getenv("EASEL_CHROME_TESTS") == "" {
		t.Skip("EASEL_CHROME_TESTS not set")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := NewBrowser(ctx)
	require.NoError(t, err)
	defer b.Close()

	page, err := b.NewPage(ctx, ports.PageOptions{Viewport: domain.ViewportMobile})
	require.NoError(t, err)

	resp, err := page.Navigate(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, resp.OK())

	url, err := page.WaitForURL(ctx, regexp.MustCompile(`^http://127\.0\.0\.1`))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", url)

	text, err := page.Document().Text(ctx, "h1.title")
	require.NoError(t, err)
	assert.Equal(t, "Outer", text)

	frame, err := page.Frame(ctx, "iframe.is-loaded")
	require.NoError(t, err)
	assert.NotEqual(t, page.Document().ID(), frame.ID())

	require.NoError(t, frame.Fill(ctx, ".block", "typed"))
	texts, err := frame.TextAll(ctx, ".block")
	require.NoError(t, err)
	assert.Equal(t, []string{"typed"}, texts)
	require.NoError(t, frame.WaitHidden(ctx, ".gone"))

	var title string
	require.NoError(t, page.Document().Evaluate(ctx, "document.title || 'untitled'", &title))
	assert.Equal(t, "untitled", title)

	wait, _ := page.OnceDialog(true)
	require.NoError(t, page.Document().Click(ctx, "#ask"))
	require.NoError(t, wait(ctx))
	answer, err := page.Document().Text(ctx, "#ask")
	require.NoError(t, err)
	assert.Equal(t, "yes", answer)

	require.NoError(t, page.Close(ctx))
}
