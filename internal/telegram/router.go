// Package telegram exposes the ledger engine as a long-polling chat bot.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/parser"
	"ledger/internal/report"
	"ledger/internal/services"
)

const RateLimitedText = "Too many messages, please slow down."

// Ledger is the engine surface the bot needs.
type Ledger interface {
	HandleCommand(ctx context.Context, userID int64, text string) (services.CommandResult, error)
	DeleteTransaction(ctx context.Context, userID int64, idText string) (services.DeleteResult, error)
	GetBalance(ctx context.Context, userID int64) (core.Balance, error)
	GetStats(ctx context.Context, userID int64) ([]core.CategoryStat, error)
	GetMonthlyReport(ctx context.Context, userID int64, ref time.Time) (core.MonthlyReport, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetPieChartData(ctx context.Context, userID int64) (report.PieChart, error)
	GetSeriesChartData(ctx context.Context, userID int64) (report.SeriesChart, error)
	Location() *time.Location
}

// Reply is the text sent back for one incoming message.
type Reply struct {
	Text string
	// Monospace asks the transport to keep column alignment.
	Monospace bool
}

type Router struct {
	ledger  Ledger
	charts  ChartRenderer
	limiter *ratelimit.Limiter
	logger  *log.Logger
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithChartRenderer replaces the bundled text renderer.
func WithChartRenderer(c ChartRenderer) RouterOption {
	return func(r *Router) {
		if c != nil {
			r.charts = c
		}
	}
}

// WithRateLimiter limits messages per user.
func WithRateLimiter(l *ratelimit.Limiter) RouterOption {
	return func(r *Router) { r.limiter = l }
}

func WithLogger(l *log.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRouter(ledger Ledger, opts ...RouterOption) *Router {
	r := &Router{
		ledger: ledger,
		charts: NewTextRenderer(),
		logger: log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent(log.ComponentTelegram)
	return r
}

// Handle dispatches one message from userID and returns the reply text.
func (r *Router) Handle(ctx context.Context, userID int64, text string) Reply {
	if r.limiter != nil && !r.limiter.Allow(strconv.FormatInt(userID, 10)) {
		r.logger.WarnContext(ctx, "Rate limit exceeded", log.FieldUserID, userID)
		return Reply{Text: RateLimitedText}
	}

	command, args, isCommand := splitCommand(text)
	if !isCommand {
		return r.record(ctx, userID, text)
	}

	r.logger.DebugContext(ctx, "Command received", log.FieldUserID, userID, log.FieldCommand, command)

	switch command {
	case "start":
		return Reply{Text: report.StartText}
	case "help":
		return Reply{Text: report.HelpText}
	case "balance":
		b, err := r.ledger.GetBalance(ctx, userID)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		return Reply{Text: report.BalanceText(b)}
	case "stats":
		stats, err := r.ledger.GetStats(ctx, userID)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		return Reply{Text: report.StatsText(stats)}
	case "chart":
		pie, err := r.ledger.GetPieChartData(ctx, userID)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		if pie.NoData {
			return Reply{Text: report.NoChartText}
		}
		return r.render(ctx, userID, command, func() (string, error) { return r.charts.RenderPie(pie) })
	case "linechart":
		series, err := r.ledger.GetSeriesChartData(ctx, userID)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		if series.Empty() {
			return Reply{Text: report.NoSeriesText}
		}
		return r.render(ctx, userID, command, func() (string, error) { return r.charts.RenderSeries(series) })
	case "report":
		var ref time.Time
		if args != "" {
			month, err := parser.ParseMonth(args, r.ledger.Location())
			if err != nil {
				return Reply{Text: "Invalid month, use YYYY-MM."}
			}
			ref = month
		}
		rep, err := r.ledger.GetMonthlyReport(ctx, userID, ref)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		return Reply{Text: report.MonthlyReportText(rep)}
	case "transactions":
		txs, err := r.ledger.ListTransactions(ctx, userID)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		return Reply{Text: report.TransactionsText(txs, r.ledger.Location())}
	case "delete":
		if args == "" {
			return Reply{Text: report.MissingIDText}
		}
		res, err := r.ledger.DeleteTransaction(ctx, userID, args)
		if err != nil {
			return r.failure(ctx, userID, command, err)
		}
		return Reply{Text: res.Text()}
	default:
		return Reply{Text: report.UnrecognizedText}
	}
}

func (r *Router) record(ctx context.Context, userID int64, text string) Reply {
	res, err := r.ledger.HandleCommand(ctx, userID, text)
	if err != nil {
		return r.failure(ctx, userID, "record", err)
	}
	return Reply{Text: res.Text()}
}

func (r *Router) render(ctx context.Context, userID int64, command string, draw func() (string, error)) Reply {
	out, err := draw()
	if err != nil {
		if errors.Is(err, ErrNothingToRender) {
			return Reply{Text: report.NoChartText}
		}
		return r.failure(ctx, userID, command, err)
	}
	return Reply{Text: out, Monospace: true}
}

func (r *Router) failure(ctx context.Context, userID int64, command string, err error) Reply {
	r.logger.ErrorContext(ctx, "Command failed",
		log.FieldUserID, userID,
		log.FieldCommand, command,
		log.FieldError, err)
	return Reply{Text: report.FailureText}
}

// splitCommand recognises "/name[@bot] args". Names are case-insensitive.
func splitCommand(text string) (command, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i:]
	}
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
