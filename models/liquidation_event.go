package models

import (
	"time"
)

// LiquidationEvent is the event whose proceeds are disbursed to investors
type LiquidationEvent struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	TotalAmountCents int64     `db:"total_amount_cents"`
	PayoutDate       string    `db:"payout_date"` // YYYY-MM-DD
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
}
