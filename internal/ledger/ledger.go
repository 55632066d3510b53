// Package ledger records the income entries derived from orders and hall
// bookings.
//
// Each source record gets at most one entry: the (source_type, source_ref)
// pair is unique in the transactions table and RecordIncome looks it up
// before inserting, so a retried placement never double-counts revenue.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/shopspring/decimal"
)

// CodePrefix prefixes every income transaction code, e.g. INC000042.
const CodePrefix = "INC"

const maxCodeRetries = 3

var (
	ErrNegativeAmount = errors.New("ledger amount must be >= 0")
	ErrMissingSource  = errors.New("ledger entry needs a source_type and source_ref")
)

// Store is the slice of database.Queries the recorder needs.
type Store interface {
	GetTransactionBySource(ctx context.Context, arg database.GetTransactionBySourceParams) (database.Transaction, error)
	GetNextTransactionCode(ctx context.Context, prefix string) (string, error)
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
}

// Income describes one income entry to record.
type Income struct {
	VenueID     uuid.UUID
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
	SourceType  string
	SourceRef   string
}

// RecordIncome writes the income entry for in.SourceRef, or returns the one
// already recorded for it. created is false when an existing entry was
// returned.
func RecordIncome(ctx context.Context, store Store, in Income) (entry database.Transaction, created bool, err error) {
	if in.SourceType == "" || in.SourceRef == "" {
		return database.Transaction{}, false, ErrMissingSource
	}
	if in.Amount.IsNegative() {
		return database.Transaction{}, false, ErrNegativeAmount
	}

	existing, err := store.GetTransactionBySource(ctx, database.GetTransactionBySourceParams{
		SourceType: in.SourceType,
		SourceRef:  in.SourceRef,
	})
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Transaction{}, false, fmt.Errorf("lookup ledger entry: %w", err)
	}

	amount, err := toNumeric(in.Amount)
	if err != nil {
		return database.Transaction{}, false, fmt.Errorf("convert amount: %w", err)
	}

	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		maxCode, err := store.GetNextTransactionCode(ctx, CodePrefix)
		if err != nil {
			return database.Transaction{}, false, fmt.Errorf("get next transaction code: %w", err)
		}
		nextNum, err := parseCodeNum(maxCode)
		if err != nil {
			return database.Transaction{}, false, fmt.Errorf("parse transaction code %q: %w", maxCode, err)
		}

		entry, err = store.CreateTransaction(ctx, database.CreateTransactionParams{
			VenueID:         in.VenueID,
			TransactionCode: fmt.Sprintf("%s%06d", CodePrefix, nextNum),
			TransactionDate: pgtype.Date{Time: in.Date, Valid: true},
			Description:     in.Description,
			Amount:          amount,
			Kind:            enum.LedgerKindIncome,
			Category:        in.Category,
			SourceType:      in.SourceType,
			SourceRef:       in.SourceRef,
		})
		if err == nil {
			return entry, true, nil
		}

		switch uniqueViolation(err) {
		case "transactions_transaction_code_key":
			continue
		case "transactions_source_key":
			// A concurrent retry for the same source won.
			existing, err := store.GetTransactionBySource(ctx, database.GetTransactionBySourceParams{
				SourceType: in.SourceType,
				SourceRef:  in.SourceRef,
			})
			if err != nil {
				return database.Transaction{}, false, fmt.Errorf("lookup ledger entry: %w", err)
			}
			return existing, false, nil
		}
		return database.Transaction{}, false, fmt.Errorf("create ledger entry: %w", err)
	}

	return database.Transaction{}, false, fmt.Errorf("create ledger entry: transaction code still taken after %d attempts", maxCodeRetries)
}

// parseCodeNum turns the current highest code into the next sequence number.
// An empty code means the sequence starts at 1.
func parseCodeNum(maxCode string) (int, error) {
	if len(maxCode) <= len(CodePrefix) {
		return 1, nil
	}
	num, err := strconv.Atoi(maxCode[len(CodePrefix):])
	if err != nil {
		return 0, err
	}
	return num + 1, nil
}

func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}

func toNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return n, err
	}
	return n, nil
}
