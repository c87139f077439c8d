// Package domain holds the core trading types shared across the bot:
// quotes, trade intents and outcomes, positions, and the provider and
// store interfaces the rest of the system is wired through.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a trade relative to the tracked asset.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Action is a signal generator's recommendation.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionNone Action = "none"
)

// Quote is the DEX's answer for one prospective swap.
type Quote struct {
	TokenIn   string
	TokenOut  string
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
	FeeTier   int
}

// TradeIntent is a fully specified swap decision. It is constructed fresh
// per decision and never mutated after submission.
type TradeIntent struct {
	Direction Direction
	TokenIn   string
	TokenOut  string
	ExactIn   decimal.Decimal
	MinOut    decimal.Decimal
	FeeTier   int
}

// ConfirmMethod records how a trade's settlement was established.
type ConfirmMethod string

const (
	ConfirmViaWait        ConfirmMethod = "wait"
	ConfirmViaBalancePoll ConfirmMethod = "balance-poll"
	ConfirmViaSimulation  ConfirmMethod = "simulated"
	ConfirmUnconfirmed    ConfirmMethod = "unconfirmed"
)

// TradeReceipt identifies a settled transaction.
type TradeReceipt struct {
	TxID string
	Hash string
}

// TradeOutcome is the terminal result of one execution attempt. AmountOut
// is the expected output pinned at planning time, not an on-chain fill.
type TradeOutcome struct {
	Confirmed    bool
	ConfirmedVia ConfirmMethod
	TxID         string
	Hash         string
	AmountOut    decimal.Decimal
	Simulated    bool
}

// TradeRecord is one row of the persistent trade log.
type TradeRecord struct {
	ID           string          `json:"id"`
	Direction    Direction       `json:"direction"`
	TokenIn      string          `json:"token_in"`
	TokenOut     string          `json:"token_out"`
	ExactIn      decimal.Decimal `json:"exact_in"`
	MinOut       decimal.Decimal `json:"min_out"`
	ExpectedOut  decimal.Decimal `json:"expected_out"`
	FeeTier      int             `json:"fee_tier"`
	Confirmed    bool            `json:"confirmed"`
	ConfirmedVia ConfirmMethod   `json:"confirmed_via"`
	TxID         string          `json:"tx_id,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Simulated    bool            `json:"simulated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BotStatus is the snapshot served by the status endpoint.
type BotStatus struct {
	Mode         string    `json:"mode"`
	DryRun       bool      `json:"dry_run"`
	Pair         string    `json:"pair"`
	LastPrice    float64   `json:"last_price"`
	EMA          float64   `json:"ema"`
	HistoryLen   int       `json:"history_len"`
	Ticks        int64     `json:"ticks"`
	TickErrors   int64     `json:"tick_errors"`
	Attempts     int64     `json:"trade_attempts"`
	Confirmed    int64     `json:"trades_confirmed"`
	Unconfirmed  int64     `json:"trades_unconfirmed"`
	Simulated    int64     `json:"trades_simulated"`
	Rejected     int64     `json:"trades_rejected"`
	StartedAt    time.Time `json:"started_at"`
	LastTickAt   time.Time `json:"last_tick_at"`
	OpenPosition bool      `json:"open_position"`
}
