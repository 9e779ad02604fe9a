package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// minorUnitExp is the exponent between provider minor units and display amounts.
// Provider prices are integer cents; they are divided by 100 exactly once, here.
const minorUnitExp = -2

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func MoneyFromMinor(minor int64, unit currency.Unit) Money {
	return Money{
		Amount:   decimal.New(minor, minorUnitExp),
		Currency: unit,
	}
}

func ZeroMoney(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}

// MinorUnits converts the amount back to integer cents, rounding half away from zero.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(-minorUnitExp).Round(0).IntPart()
}

func (m Money) Mul(quantity int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		Currency: m.Currency,
	}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s != %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
