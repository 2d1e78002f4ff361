package vm

import (
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
)

// Action is one decoded unit of work. Execute is the only mutating entry
// point: it returns a new view derived from ctx.PreviousStates and leaves
// the previous view untouched.
type Action interface {
	Type() core.ActionType
	Execute(ctx *Context) (*state.Delta, error)
}

// Context is built fresh for every action invocation. Actions must not
// retain it after Execute returns.
type Context struct {
	PreviousStates *state.Delta
	Signer         core.Address
	TxID           string
	BlockIndex     int64
	Miner          core.Address
	Random         *Random
	Rehearsal      bool
	Tables         *tables.Set

	// RehearsalCurrency overrides GoldCurrencyMock when its ticker is set.
	RehearsalCurrency core.Currency
}

// GoldCurrencyMock stands in for the gold currency during rehearsal, when
// the genesis record must not be read.
var GoldCurrencyMock = core.Currency{Ticker: "NCG", DecimalPlaces: 2}

// RehearsalGold returns the currency rehearsals mark balances in.
func (ctx *Context) RehearsalGold() core.Currency {
	if ctx.RehearsalCurrency.Ticker != "" {
		return ctx.RehearsalCurrency
	}
	return GoldCurrencyMock
}

// GoldCurrency returns the ledger's gold currency, or RehearsalGold in
// rehearsal mode.
func (ctx *Context) GoldCurrency() (core.Currency, error) {
	if ctx.Rehearsal {
		return ctx.RehearsalGold(), nil
	}
	return model.GetGoldCurrency(ctx.PreviousStates)
}
