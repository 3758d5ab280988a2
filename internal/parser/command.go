// Package parser turns the ledger shorthand into transaction drafts.
//
// The grammar is
//
//	+|- <amount> [<category>] [| <note>]
//
// where "+" records income and "-" records an expense. Only the first "|"
// separates category from note; later ones belong to the note.
package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ledger/internal/core"
)

type Kind int

const (
	// Unrecognized means the text is not a ledger command at all.
	Unrecognized Kind = iota
	// Recognized carries a valid draft.
	Recognized
	// Invalid means the text looked like a command but failed validation.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Recognized:
		return "recognized"
	case Invalid:
		return "invalid"
	default:
		return "unrecognized"
	}
}

const separator = "|"

var ErrInvalidID = errors.New("invalid id")

// Result is the outcome of parsing one line. Draft is set only for Recognized,
// Err only for Invalid.
type Result struct {
	Kind  Kind
	Draft core.Draft
	Err   error
}

// Reason returns the failure description for Invalid results.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Parse classifies text for the given user. It has no side effects.
func Parse(text string, userID int64) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Kind: Unrecognized}
	}

	var txType core.TransactionType
	switch text[0] {
	case '+':
		txType = core.Income
	case '-':
		txType = core.Expense
	default:
		return Result{Kind: Unrecognized}
	}

	amountTok, rest, hasRest := splitFirstField(strings.TrimSpace(text[1:]))
	cents, err := core.ParseAmount(amountTok)
	if err != nil {
		return Result{Kind: Invalid, Err: core.ErrInvalidAmount}
	}

	category, note := core.DefaultCategory, core.DefaultNote
	if hasRest {
		category, note = splitCategoryNote(rest)
	}

	draft := core.Draft{
		UserID:   userID,
		Type:     txType,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Note:     note,
	}
	if err := draft.Validate(); err != nil {
		return Result{Kind: Invalid, Err: err}
	}
	return Result{Kind: Recognized, Draft: draft}
}

// ParseTransactionID validates a delete identifier supplied as text.
func ParseTransactionID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// splitFirstField splits s at its first run of whitespace.
func splitFirstField(s string) (head, tail string, ok bool) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, "", false
	}
	tail = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	return s[:i], tail, tail != ""
}

func splitCategoryNote(rest string) (category, note string) {
	category, note, found := strings.Cut(rest, separator)
	category = strings.TrimSpace(category)
	if category == "" {
		category = core.DefaultCategory
	}
	if !found {
		return category, core.DefaultNote
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = core.DefaultNote
	}
	return category, note
}

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

// ParseMonth parses a YYYY-MM reference into the first day of that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}
