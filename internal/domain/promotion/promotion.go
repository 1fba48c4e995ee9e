package promotion

import (
	"github.com/shopspring/decimal"
)

// Basis says what a promotion applies to. Only ByValue promotions
// reduce the per-unit price; ByItem promotions (buy-N-get-M) are
// fulfilled elsewhere and ignored by the resolver.
type Basis string

const (
	ByValue Basis = "by_value"
	ByItem  Basis = "by_item"
)

type Kind string

const (
	Percent    Kind = "percent"
	FlatAmount Kind = "flat_amount"
)

type Promotion struct {
	Name   string          `json:"name"`
	Basis  Basis           `json:"basis"`
	Kind   Kind            `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

func (p Promotion) ReducesUnitPrice() bool {
	return p.Basis == ByValue
}
