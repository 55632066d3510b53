// Package settings reads venue configuration the placement flow depends on.
package settings

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/shopspring/decimal"
)

// TaxStore reads the per-venue tax setting.
type TaxStore interface {
	GetTaxSetting(ctx context.Context, venueID uuid.UUID) (database.TaxSetting, error)
}

// TaxRate is the rate used to price an order. Fallback is true when the
// venue's own setting could not be read and the configured default was used.
type TaxRate struct {
	Percent  decimal.Decimal
	Fallback bool
}

// TaxReader returns a venue's tax rate, falling back to a default.
type TaxReader struct {
	store       TaxStore
	defaultRate decimal.Decimal
}

func NewTaxReader(store TaxStore, defaultRate decimal.Decimal) *TaxReader {
	return &TaxReader{store: store, defaultRate: defaultRate}
}

// TaxRate never fails: a missing row, a read error or an unusable value all
// yield the default rate with Fallback set, and are logged since they change
// computed totals.
func (r *TaxReader) TaxRate(ctx context.Context, venueID uuid.UUID) TaxRate {
	row, err := r.store.GetTaxSetting(ctx, venueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("WARN: no tax setting for venue %s, using default %s%%", venueID, r.defaultRate)
		} else {
			log.Printf("WARN: read tax setting for venue %s: %v; using default %s%%", venueID, err, r.defaultRate)
		}
		return TaxRate{Percent: r.defaultRate, Fallback: true}
	}

	rate, ok := numericToDecimal(row.TaxRatePercent)
	if !ok || rate.IsNegative() {
		log.Printf("WARN: unusable tax rate for venue %s, using default %s%%", venueID, r.defaultRate)
		return TaxRate{Percent: r.defaultRate, Fallback: true}
	}
	return TaxRate{Percent: rate}
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, bool) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), true
}
