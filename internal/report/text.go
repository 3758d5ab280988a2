package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"ledger/internal/core"
)

// User facing messages.
const (
	StartText = "Hi! I keep track of your income and expenses. Send /help for instructions."

	HelpText = "Available commands:\n" +
		"/balance - current balance\n" +
		"/stats - totals per category\n" +
		"/chart - expenses per category\n" +
		"/linechart - daily income and expenses\n" +
		"/report [YYYY-MM] - monthly report\n" +
		"/transactions - all transactions\n" +
		"/delete ID - delete a transaction\n\n" +
		"To record an entry:\n" +
		"+ amount [category] | [note] for income\n" +
		"- amount [category] | [note] for expenses\n\n" +
		"Examples: + 1000 Salary | paycheck, - 200 Food | groceries"

	UnrecognizedText = "Command not recognized. Send /help for instructions."
	MissingIDText    = "Specify the transaction id to delete."
	InvalidIDText    = "Invalid id format."
	NothingDeleted   = "Nothing deleted."
	NoStatsText      = "No data for statistics."
	NoChartText      = "No expense data to chart."
	NoSeriesText     = "No transactions to chart."
	NoTransactions   = "You have no transactions."
	FailureText      = "Something went wrong, please try again later."
)

// FormatAmount renders m with thousands grouping and two decimals.
func FormatAmount(m core.Money) string {
	return humanize.FormatFloat("#,###.##", m.Float())
}

// InvalidCommandText is the guidance shown when a command fails validation.
func InvalidCommandText(reason string) string {
	return fmt.Sprintf("Invalid format (%s). Send /help for examples.", reason)
}

func RecordedText(tx core.Transaction) string {
	return fmt.Sprintf("Record added: #%d %s, %s (%s), note: %s",
		tx.ID, tx.Type, FormatAmount(tx.Amount), tx.Category, tx.Note)
}

func DeletedText(id int64) string {
	return fmt.Sprintf("Transaction %d deleted.", id)
}

func BalanceText(b core.Balance) string {
	return fmt.Sprintf("Your balance:\n\nIncome: %s\nExpenses: %s\nBalance: %s",
		FormatAmount(b.Income), FormatAmount(b.Expense), FormatAmount(b.Net()))
}

func StatsText(stats []core.CategoryStat) string {
	if len(stats) == 0 {
		return NoStatsText
	}
	var sb strings.Builder
	sb.WriteString("Totals per category:\n")
	for _, st := range stats {
		fmt.Fprintf(&sb, "- %s: income %s, expenses %s\n",
			st.Category, FormatAmount(st.Income), FormatAmount(st.Expense))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func MonthlyReportText(r core.MonthlyReport) string {
	return fmt.Sprintf("Report %s .. %s:\n\nIncome: %s\nExpenses: %s\nBalance: %s",
		r.Range.From.Format(time.DateOnly), r.Range.To.Format(time.DateOnly),
		FormatAmount(r.Income), FormatAmount(r.Expense), FormatAmount(r.Net()))
}

// TransactionsText lists txs with timestamps shown in loc.
func TransactionsText(txs []core.Transaction, loc *time.Location) string {
	if len(txs) == 0 {
		return NoTransactions
	}
	if loc == nil {
		loc = time.UTC
	}
	var sb strings.Builder
	sb.WriteString("Your transactions:\n")
	for _, tx := range txs {
		fmt.Fprintf(&sb, "ID: %d, type: %s, amount: %s, category: %s, note: %s, date: %s\n",
			tx.ID, tx.Type, FormatAmount(tx.Amount), tx.Category, tx.Note,
			tx.CreatedAt.In(loc).Format(time.DateTime))
	}
	return strings.TrimRight(sb.String(), "\n")
}
