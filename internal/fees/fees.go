// Package fees applies fixed-rate multipliers to trade, withdrawal, and
// storage amounts and summarizes the result.
package fees

import (
	"encoding/json"
	"fmt"
)

// Default per-category rates.
const (
	DefaultTradeRate      = 0.003
	DefaultWithdrawalRate = 0.001
	DefaultStorageRate    = 0.0005
)

// Rates holds the multiplier for each fee category.
type Rates struct {
	Trade      float64
	Withdrawal float64
	Storage    float64
}

// DefaultRates returns the standard rate set.
func DefaultRates() Rates {
	return Rates{
		Trade:      DefaultTradeRate,
		Withdrawal: DefaultWithdrawalRate,
		Storage:    DefaultStorageRate,
	}
}

// Summary holds the three line fees and their total.
type Summary struct {
	TradeFee      float64 `json:"trade_fee"`
	WithdrawalFee float64 `json:"withdrawal_fee"`
	StorageFee    float64 `json:"storage_fee"`
	TotalFee      float64 `json:"total_fee"`
}

// TradeFee returns the fee for a trade of the given amount.
func (r Rates) TradeFee(amount float64) float64 {
	return amount * r.Trade
}

// WithdrawalFee returns the fee for a withdrawal of the given amount.
func (r Rates) WithdrawalFee(amount float64) float64 {
	return amount * r.Withdrawal
}

// StorageFee returns the fee for storing the given amount.
func (r Rates) StorageFee(amount float64) float64 {
	return amount * r.Storage
}

// Summarize computes all three line fees for the given amounts.
//
// Postcondition: TotalFee == TradeFee + WithdrawalFee + StorageFee.
func (r Rates) Summarize(tradeAmount, withdrawalAmount, storageAmount float64) Summary {
	s := Summary{
		TradeFee:      r.TradeFee(tradeAmount),
		WithdrawalFee: r.WithdrawalFee(withdrawalAmount),
		StorageFee:    r.StorageFee(storageAmount),
	}
	s.TotalFee = s.TradeFee + s.WithdrawalFee + s.StorageFee
	return s
}

// JSON returns the summary as an indented JSON document.
func (s Summary) JSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding fee summary: %w", err)
	}
	return string(data), nil
}
