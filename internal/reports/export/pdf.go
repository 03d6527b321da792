package export

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/learnhub-academy/learnhub/internal/reports"
)

// Renderer converts an HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter lays out report tables and hands them to a Renderer.
type PDFExporter struct {
	renderer Renderer
	spec     PageSpec
	now      func() time.Time
}

// NewPDFExporter constructs a PDFExporter using A4 portrait pages.
func NewPDFExporter(renderer Renderer) *PDFExporter {
	return &PDFExporter{renderer: renderer, spec: A4Portrait, now: time.Now}
}

// UserPerformancePDF renders the per-user summary table.
func (p *PDFExporter) UserPerformancePDF(ctx context.Context, users []reports.UserPerformance) ([]byte, error) {
	if len(users) == 0 {
		return nil, ErrNoData
	}
	return p.render(ctx, UserPerformanceLayout(users, p.spec))
}

// FullReportPDF renders statistics, user summaries and raw results.
func (p *PDFExporter) FullReportPDF(ctx context.Context, ov reports.Overview) ([]byte, error) {
	if ov.Empty() {
		return nil, ErrNoData
	}
	return p.render(ctx, FullReportLayout(ov, p.spec))
}

func (p *PDFExporter) render(ctx context.Context, layout *Layout) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, errors.New("export: pdf renderer not configured")
	}
	data, err := p.renderer.RenderHTML(ctx, RenderHTML(layout, p.now()))
	if err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return data, nil
}

// UserPerformanceLayout lays out the user performance document.
func UserPerformanceLayout(users []reports.UserPerformance, spec PageSpec) *Layout {
	l := NewLayout("User Performance Report", spec)
	l.AddTable(Table{Heading: "User Performance", Columns: usersHeader, Rows: userRows(users, displayCount)})
	return l
}

// FullReportLayout lays out the full admin report.
func FullReportLayout(ov reports.Overview, spec PageSpec) *Layout {
	l := NewLayout("LearnHub Academy Admin Report", spec)

	stats := make([][]string, 0, len(ov.Statistics))
	for _, st := range ov.Statistics {
		stats = append(stats, []string{
			st.ExamTitle,
			displayCount(st.TotalParticipants),
			displayNumber(st.AverageScore),
			displayPercent(st.PassRate),
			displayNumber(st.HighestScore),
			displayNumber(st.LowestScore),
		})
	}
	l.AddTable(Table{Heading: "Exam Statistics", Columns: statisticsHeader, Rows: stats})
	l.AddTable(Table{Heading: "User Performance", Columns: usersHeader, Rows: userRows(ov.Users, displayCount)})

	results := make([][]string, 0, len(ov.Results))
	for _, r := range ov.Results {
		results = append(results, []string{
			resultUserName(r),
			resultUserEmail(r),
			examTitle(r.Exam),
			displayNumber(r.Score),
			displayPercent(r.Percentage),
			passLabel(r.Passed),
			formatTime(r.SubmittedAt),
		})
	}
	l.AddTable(Table{Heading: "Exam Results", Columns: resultsHeader, Rows: results})
	return l
}

const pageStyle = `@page{size:A4;margin:0}body{font-family:sans-serif;margin:0;font-size:10px}` +
	`.page{padding:40px;page-break-after:always}.page:last-child{page-break-after:auto}` +
	`h1{font-size:18px;margin:0 0 4px}h2{font-size:13px;margin:12px 0 6px}.meta{color:#666;margin-bottom:8px}` +
	`table{width:100%;border-collapse:collapse}th,td{border:1px solid #ddd;padding:3px 5px;text-align:left}th{background:#f0f0f0}`

// RenderHTML turns a layout into a printable HTML document with one
// section per page.
func RenderHTML(l *Layout, generated time.Time) string {
	pages := l.Pages()
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"><style>`)
	b.WriteString(pageStyle)
	b.WriteString(`</style></head><body>`)
	for _, page := range pages {
		b.WriteString(`<section class="page"><h1>`)
		b.WriteString(html.EscapeString(page.Title))
		b.WriteString(`</h1><div class="meta">`)
		fmt.Fprintf(&b, "Generated %s &middot; Page %d of %d", html.EscapeString(formatTime(generated)), page.Number, len(pages))
		b.WriteString(`</div>`)
		for _, block := range page.Blocks {
			writeBlock(&b, block)
		}
		b.WriteString(`</section>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func writeBlock(b *strings.Builder, block Block) {
	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(block.Heading))
	if block.Continued {
		b.WriteString(" (continued)")
	}
	b.WriteString("</h2><table><thead><tr>")
	for _, col := range block.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range block.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}
