package http

import (
	"time"

	"ledger/internal/core"
	"ledger/internal/report"
	"ledger/internal/services"
)

const dateLayout = time.DateOnly

// MoneyDTO carries exact cents next to a display string.
type MoneyDTO struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func newMoney(m core.Money) MoneyDTO {
	return MoneyDTO{Cents: m.Cents, Formatted: report.FormatAmount(m)}
}

type TransactionDTO struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Amount    MoneyDTO  `json:"amount"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func newTransaction(tx core.Transaction, loc *time.Location) TransactionDTO {
	return TransactionDTO{
		ID:        tx.ID,
		UserID:    tx.UserID,
		Type:      tx.Type.String(),
		Amount:    newMoney(tx.Amount),
		Category:  tx.Category,
		Note:      tx.Note,
		CreatedAt: tx.CreatedAt.In(loc),
	}
}

type TransactionListDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	Count        int              `json:"count"`
}

type BalanceDTO struct {
	Income  MoneyDTO `json:"income"`
	Expense MoneyDTO `json:"expense"`
	Net     MoneyDTO `json:"net"`
}

func newBalance(b core.Balance) BalanceDTO {
	return BalanceDTO{
		Income:  newMoney(b.Income),
		Expense: newMoney(b.Expense),
		Net:     newMoney(b.Net()),
	}
}

type CategoryStatDTO struct {
	Category string   `json:"category"`
	Income   MoneyDTO `json:"income"`
	Expense  MoneyDTO `json:"expense"`
}

type StatsDTO struct {
	Categories []CategoryStatDTO `json:"categories"`
}

type ReportDTO struct {
	Month string `json:"month"`
	From  string `json:"from"`
	To    string `json:"to"`
	BalanceDTO
}

func newReport(r core.MonthlyReport) ReportDTO {
	return ReportDTO{
		Month:      r.Range.From.Format("2006-01"),
		From:       r.Range.From.Format(dateLayout),
		To:         r.Range.To.Format(dateLayout),
		BalanceDTO: newBalance(r.Balance),
	}
}

type PieSliceDTO struct {
	Label  string   `json:"label"`
	Amount MoneyDTO `json:"amount"`
	Share  float64  `json:"share"`
}

type PieDTO struct {
	NoData  bool          `json:"no_data"`
	Message string        `json:"message,omitempty"`
	Total   MoneyDTO      `json:"total"`
	Slices  []PieSliceDTO `json:"slices"`
}

func newPie(p report.PieChart) PieDTO {
	out := PieDTO{
		NoData: p.NoData,
		Total:  newMoney(p.Total),
		Slices: make([]PieSliceDTO, 0, len(p.Slices)),
	}
	if p.NoData {
		out.Message = report.NoChartText
	}
	for _, s := range p.Slices {
		out.Slices = append(out.Slices, PieSliceDTO{Label: s.Label, Amount: newMoney(s.Amount), Share: s.Share})
	}
	return out
}

type SeriesPointDTO struct {
	Date   string   `json:"date"`
	Amount MoneyDTO `json:"amount"`
}

type SeriesDTO struct {
	Income  []SeriesPointDTO `json:"income"`
	Expense []SeriesPointDTO `json:"expense"`
}

func newSeries(s report.SeriesChart) SeriesDTO {
	conv := func(points []report.SeriesPoint) []SeriesPointDTO {
		out := make([]SeriesPointDTO, 0, len(points))
		for _, p := range points {
			out = append(out, SeriesPointDTO{Date: p.Date.Format(dateLayout), Amount: newMoney(p.Amount)})
		}
		return out
	}
	return SeriesDTO{Income: conv(s.Income), Expense: conv(s.Expense)}
}

// CommandDTO is the body of a successful POST commands.
type CommandDTO struct {
	Message     string         `json:"message"`
	Transaction TransactionDTO `json:"transaction"`
}

type DeleteDTO struct {
	Status  string `json:"status"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func newDelete(r services.DeleteResult) DeleteDTO {
	return DeleteDTO{Status: r.Outcome.String(), ID: r.ID, Message: r.Text()}
}
