package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *domain.RunRecord {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return &domain.RunRecord{
		ID:         "run-1",
		Scenario:   "publish-quote",
		Status:     domain.RunFailed,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Steps: []domain.StepResult{
			{Index: 0, Action: domain.ActionEnterTitle, Duration: 120 * time.Millisecond, Output: "Hello | World"},
			{Index: 1, Action: domain.ActionPreviewMobile, Skipped: true},
			{Index: 2, Name: "check", Action: domain.ActionExpectTitle, Error: "expect title: expected \"a\",\nobserved \"b\""},
		},
		Outputs:      map[string]string{"title": "Hello | World", "published_url": "https://example.wordpress.com/x/"},
		EditorStatus: domain.StatusReady,
		Error:        "step 2 (check): expect title",
	}
}

func TestReport(t *testing.T) {
	md := Report(sampleRecord())

	assert.True(t, strings.HasPrefix(md, "# publish-quote\n"))
	assert.Contains(t, md, "**FAILED** · run `run-1` · 1.5s · editor ready")
	assert.Contains(t, md, "> step 2 (check): expect title")
	assert.Contains(t, md, `| 1 | enter_title | Hello \| World | 120ms |`)
	assert.Contains(t, md, "| 2 | preview_mobile | skipped | 0s |")
	assert.Contains(t, md, `| 3 | check (expect_title) | **expect title: expected "a", observed "b"** | 0s |`)

	urlAt := strings.Index(md, "`published_url`")
	titleAt := strings.Index(md, "`title`")
	require.Positive(t, urlAt)
	assert.Less(t, urlAt, titleAt, "outputs are sorted")
}

func TestReport_Renders(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)
	out, err := render(Report(sampleRecord()))
	require.NoError(t, err)
	assert.Contains(t, out, "publish-quote")
}

func TestPrinter_StepLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	rec := sampleRecord()

	assert.Equal(t, "✓  1 enter_title 120ms → Hello | World", p.StepLine(rec.Steps[0]))
	assert.Equal(t, "-  2 preview_mobile (skipped)", p.StepLine(rec.Steps[1]))
	assert.True(t, strings.HasPrefix(p.StepLine(rec.Steps[2]), "✗  3 check expect title"))

	p.Step(rec.Steps[1])
	assert.Equal(t, "-  2 preview_mobile (skipped)\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), `|  __/ (_| \__ \  __/ |`)
}
