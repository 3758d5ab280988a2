package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ledger/internal/parser"
	"ledger/internal/report"
	"ledger/internal/services"
	"ledger/internal/telegram"
)

var (
	errUserRequired = errors.New("--user is required")
	errUsage        = errors.New("wrong number of arguments")
)

type app struct {
	svc    *services.LedgerService
	out    io.Writer
	userID int64
	charts telegram.ChartRenderer
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	if a.userID <= 0 {
		return errUserRequired
	}
	if a.charts == nil {
		a.charts = telegram.NewTextRenderer()
	}

	switch command {
	case "add":
		if len(args) == 0 {
			return fmt.Errorf("add: %w", errUsage)
		}
		res, err := a.svc.HandleCommand(ctx, a.userID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if res.Kind != parser.Recognized {
			return errors.New(res.Text())
		}
		return a.print(res.Text())
	case "delete":
		if len(args) != 1 {
			return errors.New(report.MissingIDText)
		}
		res, err := a.svc.DeleteTransaction(ctx, a.userID, args[0])
		if err != nil {
			return err
		}
		if res.Outcome == services.DeleteInvalidID {
			return errors.New(res.Text())
		}
		return a.print(res.Text())
	case "list":
		txs, err := a.svc.ListTransactions(ctx, a.userID)
		if err != nil {
			return err
		}
		return a.print(report.TransactionsText(txs, a.svc.Location()))
	case "balance":
		b, err := a.svc.GetBalance(ctx, a.userID)
		if err != nil {
			return err
		}
		return a.print(report.BalanceText(b))
	case "stats":
		stats, err := a.svc.GetStats(ctx, a.userID)
		if err != nil {
			return err
		}
		return a.print(report.StatsText(stats))
	case "report":
		ref, err := monthArg(args, a.svc.Location())
		if err != nil {
			return err
		}
		rep, err := a.svc.GetMonthlyReport(ctx, a.userID, ref)
		if err != nil {
			return err
		}
		return a.print(report.MonthlyReportText(rep))
	case "pie":
		pie, err := a.svc.GetPieChartData(ctx, a.userID)
		if err != nil {
			return err
		}
		if pie.NoData {
			return a.print(report.NoChartText)
		}
		out, err := a.charts.RenderPie(pie)
		if err != nil {
			return err
		}
		return a.print(out)
	case "series":
		series, err := a.svc.GetSeriesChartData(ctx, a.userID)
		if err != nil {
			return err
		}
		if series.Empty() {
			return a.print(report.NoSeriesText)
		}
		out, err := a.charts.RenderSeries(series)
		if err != nil {
			return err
		}
		return a.print(out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func monthArg(args []string, loc *time.Location) (time.Time, error) {
	switch len(args) {
	case 0:
		return time.Time{}, nil
	case 1:
		return parser.ParseMonth(args[0], loc)
	default:
		return time.Time{}, fmt.Errorf("report: %w", errUsage)
	}
}

func (a *app) print(s string) error {
	_, err := fmt.Fprintln(a.out, s)
	return err
}

