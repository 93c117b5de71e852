package exchange

import (
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// FeeParams is everything a fee callback needs to price a single fill
// (spec §4.4: "Delegated to a fee_fn(exchange_name, is_maker, base, quote,
// type, side, amount, price); the core does not mutate fee state").
type FeeParams struct {
	ExchangeName string
	IsMaker      bool
	Base         string
	Quote        string
	OrderType    types.OrderType
	Side         types.Side
	Amount       xdecimal.Decimal
	Price        xdecimal.Decimal
}

// FeeFunc computes the fee owed for a single fill.
type FeeFunc func(FeeParams) xdecimal.Decimal

// ZeroFee is the default FeeFunc: no fees at all. Used whenever a caller
// constructs a PaperExchange without one, so the core never has to
// special-case a nil func.
func ZeroFee(FeeParams) xdecimal.Decimal {
	return xdecimal.Zero
}
