package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/report"
	"ledger/internal/services"
	"ledger/internal/storage/memory"
)

var quietLogger = log.New(log.Config{Level: slog.Level(100), Output: io.Discard})

func newRouter(t *testing.T, opts ...RouterOption) *Router {
	t.Helper()
	svc := services.NewLedgerService(memory.New(), services.Options{Logger: quietLogger})
	return NewRouter(svc, append([]RouterOption{WithLogger(quietLogger)}, opts...)...)
}

func TestRouterConversation(t *testing.T) {
	r := newRouter(t)
	ctx := context.Background()

	steps := []struct {
		in       string
		contains string
	}{
		{"/start", report.StartText},
		{"/help", "/report [YYYY-MM]"},
		{"/balance", "Balance: 0.00"},
		{"/stats", report.NoStatsText},
		{"/chart", report.NoChartText},
		{"/linechart", report.NoSeriesText},
		{"/transactions", report.NoTransactions},
		{"+ 1000 Salary | paycheck", "Record added: #1 income, 1,000.00 (Salary), note: paycheck"},
		{"- 250 Food", "Record added: #2 expense, 250.00 (Food), note: No comment"},
		{"- abc", "Invalid format"},
		{"hello", report.UnrecognizedText},
		{"/balance@ledger_bot", "Balance: 750.00"},
		{"/STATS", "- Food: income 0.00, expenses 250.00"},
		{"/chart", "Food"},
		{"/linechart", "Daily expenses"},
		{"/report", "Income: 1,000.00"},
		{"/report 1999-01", "Income: 0.00"},
		{"/report january", "Invalid month"},
		{"/transactions", "ID: 2, type: expense, amount: 250.00, category: Food"},
		{"/delete", report.MissingIDText},
		{"/delete x", report.InvalidIDText},
		{"/delete 2", "Transaction 2 deleted."},
		{"/delete 2", report.NothingDeleted},
		{"/unknown", report.UnrecognizedText},
	}
	for _, s := range steps {
		got := r.Handle(ctx, 42, s.in)
		if !strings.Contains(got.Text, s.contains) {
			t.Fatalf("Handle(%q) = %q, want it to contain %q", s.in, got.Text, s.contains)
		}
	}

	// Other users do not see user 42's data
	if got := r.Handle(ctx, 7, "/transactions"); got.Text != report.NoTransactions {
		t.Fatalf("user 7 saw %q", got.Text)
	}
}

func TestRouterChartsAreMonospace(t *testing.T) {
	r := newRouter(t)
	ctx := context.Background()
	r.Handle(ctx, 1, "- 30 Food")
	if got := r.Handle(ctx, 1, "/chart"); !got.Monospace {
		t.Fatalf("chart reply should be monospace: %+v", got)
	}
	if got := r.Handle(ctx, 1, "/balance"); got.Monospace {
		t.Fatalf("text reply should not be monospace")
	}
}

type failingRenderer struct{}

func (failingRenderer) RenderPie(report.PieChart) (string, error) { return "", errors.New("boom") }
func (failingRenderer) RenderSeries(report.SeriesChart) (string, error) { return "", errors.New("boom") }

func TestRouterRendererFailure(t *testing.T) {
	r := newRouter(t, WithChartRenderer(failingRenderer{}))
	ctx := context.Background()
	r.Handle(ctx, 1, "- 30 Food")
	for _, cmd := range []string{"/chart", "/linechart"} {
		if got := r.Handle(ctx, 1, cmd); got.Text != report.FailureText {
			t.Fatalf("%s: got %q", cmd, got.Text)
		}
	}
}

type brokenLedger struct{ Ledger }

var errDown = errors.New("database is locked")

func (brokenLedger) HandleCommand(context.Context, int64, string) (services.CommandResult, error) {
	return services.CommandResult{}, errDown
}
func (brokenLedger) GetBalance(context.Context, int64) (core.Balance, error) {
	return core.Balance{}, errDown
}

func TestRouterStorageFailure(t *testing.T) {
	r := NewRouter(brokenLedger{}, WithLogger(quietLogger))
	for _, in := range []string{"+ 5 Gift", "/balance"} {
		if got := r.Handle(context.Background(), 1, in); got.Text != report.FailureText {
			t.Fatalf("Handle(%q) = %q", in, got.Text)
		}
	}
}

func TestRouterRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 2})
	defer limiter.Stop()
	r := newRouter(t, WithRateLimiter(limiter))
	ctx := context.Background()

	r.Handle(ctx, 1, "/start")
	r.Handle(ctx, 1, "/start")
	if got := r.Handle(ctx, 1, "/start"); got.Text != RateLimitedText {
		t.Fatalf("third message should be limited, got %q", got.Text)
	}
	if got := r.Handle(ctx, 2, "/start"); got.Text != report.StartText {
		t.Fatalf("other users are independent, got %q", got.Text)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in, cmd, args string
		ok            bool
	}{
		{"/report 2024-02", "report", "2024-02", true},
		{"/Delete@my_bot  12 ", "delete", "12", true},
		{"/help", "help", "", true},
		{"/delete\t5", "delete", "5", true},
		{"/report\n2024-02", "report", "2024-02", true},
		{"- 5 Food", "", "", false},
	}
	for _, tt := range tests {
		cmd, args, ok := splitCommand(tt.in)
		if cmd != tt.cmd || args != tt.args || ok != tt.ok {
			t.Errorf("splitCommand(%q) = %q, %q, %v", tt.in, cmd, args, ok)
		}
	}
}

func TestTextRenderer(t *testing.T) {
	r := &TextRenderer{Width: 10}
	day := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	pie, err := r.RenderPie(report.PieChartData([]core.CategoryStat{
		{Category: "Food", Expense: core.Money{Cents: 7500}},
		{Category: "Fun", Expense: core.Money{Cents: 2500}},
	}))
	if err != nil {
		t.Fatalf("RenderPie: %v", err)
	}
	lines := strings.Split(pie, "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], "total 100.00") {
		t.Fatalf("unexpected pie:\n%s", pie)
	}
	if !strings.HasPrefix(lines[1], "Food "+strings.Repeat("█", 10)) || !strings.Contains(lines[1], "75.0%") {
		t.Fatalf("unexpected Food line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Fun  "+strings.Repeat("█", 3)+strings.Repeat("░", 7)) {
		t.Fatalf("unexpected Fun line %q", lines[2])
	}

	if _, err := r.RenderPie(report.PieChart{NoData: true}); !errors.Is(err, ErrNothingToRender) {
		t.Fatalf("expected ErrNothingToRender, got %v", err)
	}

	series, err := r.RenderSeries(report.SeriesChart{
		Income: []report.SeriesPoint{{Date: day, Amount: core.Money{Cents: 1}}},
	})
	if err != nil {
		t.Fatalf("RenderSeries: %v", err)
	}
	if !strings.Contains(series, "2024-02-10 █") || !strings.Contains(series, "Daily expenses\n(none)") {
		t.Fatalf("unexpected series:\n%s", series)
	}
}

type recordingSender struct{ sent []tgbotapi.MessageConfig }

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestBotHandleUpdate(t *testing.T) {
	out := &recordingSender{}
	b := &Bot{out: out, router: newRouter(t), logger: quietLogger}
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{})
	b.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 100},
		From: &tgbotapi.User{ID: 5},
		Text: "- 3 Café & bar",
	}})
	b.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 100},
		From: &tgbotapi.User{ID: 5},
		Text: "/chart",
	}})

	if len(out.sent) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(out.sent))
	}
	if out.sent[0].ChatID != 100 || !strings.HasPrefix(out.sent[0].Text, "Record added") || out.sent[0].ParseMode != "" {
		t.Fatalf("unexpected record reply %+v", out.sent[0])
	}
	chart := out.sent[1]
	if chart.ParseMode != tgbotapi.ModeHTML || !strings.HasPrefix(chart.Text, "<pre>") || !strings.Contains(chart.Text, "Café &amp; bar") {
		t.Fatalf("unexpected chart reply %+v", chart)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split into %q", got)
	}
	if got := splitMessage("", 10); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty text split into %q", got)
	}

	got := splitMessage("aaaa\nbbbb\ncccc", 10)
	want := []string{"aaaa\nbbbb", "cccc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("split on newline = %q, want %q", got, want)
	}

	// No newline: hard cut on a rune boundary, counting astral runes twice.
	got = splitMessage(strings.Repeat("ж", 7)+strings.Repeat("💸", 3), 8)
	for _, part := range got {
		if utf16Len(part) > 8 || !utf8.ValidString(part) {
			t.Fatalf("bad part %q (%d units)", part, utf16Len(part))
		}
	}
	if strings.Join(got, "") != strings.Repeat("ж", 7)+strings.Repeat("💸", 3) {
		t.Fatalf("parts lost text: %q", got)
	}
}

func TestBotSplitsLongReplies(t *testing.T) {
	out := &recordingSender{}
	router := newRouter(t)
	b := &Bot{out: out, router: router, logger: quietLogger}
	ctx := context.Background()

	const rows = 60
	for i := 1; i <= rows; i++ {
		if rep := router.Handle(ctx, 5, fmt.Sprintf("- %d Groceries | weekly shopping", i)); !strings.HasPrefix(rep.Text, "Record added") {
			t.Fatalf("row %d not recorded: %q", i, rep.Text)
		}
	}

	b.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 100},
		From: &tgbotapi.User{ID: 5},
		Text: "/transactions",
	}})

	if len(out.sent) < 2 {
		t.Fatalf("expected the listing to be split, got %d message(s)", len(out.sent))
	}
	var all strings.Builder
	for _, m := range out.sent {
		if n := utf16Len(m.Text); n > 4096 {
			t.Fatalf("message of %d units exceeds the Telegram limit", n)
		}
		all.WriteString(m.Text + "\n")
	}
	for _, id := range []int{1, rows / 2, rows} {
		if !strings.Contains(all.String(), fmt.Sprintf("ID: %d,", id)) {
			t.Fatalf("row %d missing from split replies", id)
		}
	}
}
