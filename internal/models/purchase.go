package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is the record of one paid course access. Lifecycle:
//
//	active (completed=false, refunded=false)
//	  -> completed (direct completion request)
//	  -> closed    (completed=true AND refunded=true, set after a refund payout)
//
// Both flags are monotonic: nothing in the system ever resets them to false.
type Purchase struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	TxHash        string    `json:"tx_hash"`
	AmountNano    int64     `json:"amount_nano"`
	AmountTON     string    `json:"amount_ton"`
	Completed     bool      `json:"completed"`
	Refunded      bool      `json:"refunded"`
	CreatedAt     time.Time `json:"created_at"`
}

// Active reports whether the purchase still occupies the user's single
// active slot.
func (p *Purchase) Active() bool {
	return !p.Completed && !p.Refunded
}

// Closed reports whether the purchase reached its terminal state.
func (p *Purchase) Closed() bool {
	return p.Refunded
}
