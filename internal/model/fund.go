package model

import "time"

// BankrollState is the persisted trading bankroll.
type BankrollState struct {
	Budget             int64     `json:"budget"`
	LastRunID          string    `json:"last_run_id,omitempty"`
	LastPortfolioCost  int64     `json:"last_portfolio_cost"`
	LastProfitAfterTax int64     `json:"last_profit_after_tax"`
	LastRunAt          time.Time `json:"last_run_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
