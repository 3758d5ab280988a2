package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"ledger/internal/log"
	"ledger/internal/parser"
	"ledger/internal/report"
	"ledger/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady probes every registered dependency check
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				"check", name, log.FieldError, err)
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().Status(httpStatus).Data(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests rejected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

// handleCommand records one shorthand command sent as {"text": "..."} or text=...
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, userID int64) {
	body := NewRequestBodyParser(w, r)
	if err := body.Parse(); err != nil {
		BadRequestError(CodeBadRequest, "Invalid request body").Write(w)
		return
	}
	text := body.Get("text")
	if text == "" {
		BadRequestError(CodeBadRequest, errMissingText.Error()).Write(w)
		return
	}

	res, err := s.svc.HandleCommand(r.Context(), userID, text)
	if err != nil {
		s.internalError(w, r, "Command failed", err)
		return
	}

	switch res.Kind {
	case parser.Recognized:
		NewJSONResponse().
			Status(http.StatusCreated).
			Data(CommandDTO{Message: res.Text(), Transaction: newTransaction(res.Transaction, s.svc.Location())}).
			Write(w)
	case parser.Invalid:
		UnprocessableEntityError(CodeInvalid, res.Text()).Write(w)
	default:
		BadRequestError(CodeUnrecognized, res.Text()).Write(w)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, userID int64) {
	res, err := s.svc.DeleteTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.internalError(w, r, "Delete failed", err)
		return
	}

	switch res.Outcome {
	case services.Deleted:
		NewJSONResponse().Data(newDelete(res)).Write(w)
	case services.DeleteNotFound:
		NewJSONResponse().Status(http.StatusNotFound).Data(newDelete(res)).Write(w)
	default:
		BadRequestError(CodeInvalidID, res.Text()).Write(w)
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	txs, err := s.svc.ListTransactions(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "List transactions failed", err)
		return
	}
	out := TransactionListDTO{Transactions: make([]TransactionDTO, 0, len(txs)), Count: len(txs)}
	for _, tx := range txs {
		out.Transactions = append(out.Transactions, newTransaction(tx, s.svc.Location()))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, userID int64) {
	b, err := s.svc.GetBalance(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Balance failed", err)
		return
	}
	NewJSONResponse().Data(newBalance(b)).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, userID int64) {
	stats, err := s.svc.GetStats(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Stats failed", err)
		return
	}
	out := StatsDTO{Categories: make([]CategoryStatDTO, 0, len(stats))}
	for _, st := range stats {
		out.Categories = append(out.Categories, CategoryStatDTO{
			Category: st.Category,
			Income:   newMoney(st.Income),
			Expense:  newMoney(st.Expense),
		})
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, userID int64) {
	ref, err := ParseMonthParam(r.URL.Query(), s.svc.Location())
	if err != nil {
		BadRequestError(CodeInvalidMonth, err.Error()).Write(w)
		return
	}
	rep, err := s.svc.GetMonthlyReport(r.Context(), userID, ref)
	if err != nil {
		s.internalError(w, r, "Monthly report failed", err)
		return
	}
	NewJSONResponse().Data(newReport(rep)).Write(w)
}

func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request, userID int64) {
	pie, err := s.svc.GetPieChartData(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Pie chart failed", err)
		return
	}
	NewJSONResponse().Data(newPie(pie)).Write(w)
}

func (s *Server) handleSeriesChart(w http.ResponseWriter, r *http.Request, userID int64) {
	series, err := s.svc.GetSeriesChartData(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Series chart failed", err)
		return
	}
	NewJSONResponse().Data(newSeries(series)).Write(w)
}

// internalError logs err and answers with a generic 500
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldPath, r.URL.Path,
		log.FieldError, err)
	InternalServerError(report.FailureText).Write(w)
}
