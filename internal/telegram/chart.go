package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/report"
)

var ErrNothingToRender = errors.New("nothing to render")

// ChartRenderer turns chart tables into a message body.
type ChartRenderer interface {
	RenderPie(p report.PieChart) (string, error)
	RenderSeries(s report.SeriesChart) (string, error)
}

// TextRenderer draws horizontal bar charts with block characters.
type TextRenderer struct {
	// Width is the length of the longest bar.
	Width int
}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{Width: 20}
}

func (r *TextRenderer) RenderPie(p report.PieChart) (string, error) {
	if p.NoData || len(p.Slices) == 0 {
		return "", ErrNothingToRender
	}

	labelWidth := 0
	maxCents := int64(0)
	for _, s := range p.Slices {
		labelWidth = max(labelWidth, len([]rune(s.Label)))
		maxCents = max(maxCents, s.Amount.Cents)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Expenses by category (total %s)\n", report.FormatAmount(p.Total))
	for _, s := range p.Slices {
		fmt.Fprintf(&sb, "%s %s %5.1f%% %s\n",
			pad(s.Label, labelWidth), r.bar(s.Amount.Cents, maxCents), s.Share, report.FormatAmount(s.Amount))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (r *TextRenderer) RenderSeries(s report.SeriesChart) (string, error) {
	if s.Empty() {
		return "", ErrNothingToRender
	}

	// Both series share one scale so their bars compare
	maxCents := int64(0)
	for _, p := range append(append([]report.SeriesPoint{}, s.Income...), s.Expense...) {
		maxCents = max(maxCents, p.Amount.Cents)
	}

	var sb strings.Builder
	r.writeSeries(&sb, "Daily income", s.Income, maxCents)
	sb.WriteString("\n")
	r.writeSeries(&sb, "Daily expenses", s.Expense, maxCents)
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (r *TextRenderer) writeSeries(sb *strings.Builder, title string, points []report.SeriesPoint, maxCents int64) {
	sb.WriteString(title + "\n")
	if len(points) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, p := range points {
		fmt.Fprintf(sb, "%s %s %s\n", p.Date.Format(time.DateOnly), r.bar(p.Amount.Cents, maxCents), report.FormatAmount(p.Amount))
	}
}

// bar scales cents against maxCents. Positive amounts get at least one block.
func (r *TextRenderer) bar(cents, maxCents int64) string {
	width := r.Width
	if width <= 0 {
		width = 20
	}
	n := 0
	if maxCents > 0 && cents > 0 {
		n = max(1, int(cents*int64(width)/maxCents))
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

