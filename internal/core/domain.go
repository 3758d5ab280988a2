package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// DefaultCategory is stored when a command carries no category.
	DefaultCategory = "Uncategorized"
	// DefaultNote is stored when a command carries no note.
	DefaultNote = "No comment"
)

type (
	TransactionType string

	// Draft is a validated transaction payload that has not been persisted yet.
	// The store assigns ID and CreatedAt.
	Draft struct {
		UserID   int64
		Type     TransactionType
		Amount   Money
		Category string
		Note     string
	}

	Transaction struct {
		ID        int64
		UserID    int64
		Type      TransactionType
		Amount    Money
		Category  string
		Note      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrCategoryTooLong = fmt.Errorf("category too long (max %d characters)", MaxCategoryRunes)
	ErrNoteTooLong     = fmt.Errorf("note too long (max %d characters)", MaxNoteRunes)
)

// Limits are counted in runes, not bytes.
const (
	MaxCategoryRunes = 256
	MaxNoteRunes     = 2000
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType maps the stored representation back to a type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (d Draft) Validate() error {
	if d.UserID == 0 {
		return ErrInvalidUser
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(d.Category) > MaxCategoryRunes {
		return ErrCategoryTooLong
	}
	if utf8.RuneCountInString(d.Note) > MaxNoteRunes {
		return ErrNoteTooLong
	}
	return nil
}

// Transaction builds the persisted form of the draft.
func (d Draft) Transaction(id int64, createdAt time.Time) Transaction {
	return Transaction{
		ID:        id,
		UserID:    d.UserID,
		Type:      d.Type,
		Amount:    d.Amount,
		Category:  d.Category,
		Note:      d.Note,
		CreatedAt: createdAt,
	}
}
