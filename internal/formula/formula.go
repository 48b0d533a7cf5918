// Package formula computes the per-order monetary contribution for each
// settlement class.
//
// The class-to-formula mapping is the single most business-critical
// artifact in the engine. It lives in one explicit table so a policy
// revision touches exactly one place; individual formulas can be swapped
// per run through the engine configuration without code changes.
package formula

import (
	"fmt"

	"driver-settlement-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Inputs are the monetary fields a formula may reference. Missing source
// cells arrive here as decimal.Zero; a formula never sees an undefined
// value.
type Inputs struct {
	ItemTotal            decimal.Decimal
	DriverPayout         decimal.Decimal
	Bonus                decimal.Decimal
	ServiceCharge        decimal.Decimal
	RestaurantCommission decimal.Decimal
	Coupon               decimal.Decimal
}

// InputsFromOrder extracts formula inputs from an order.
func InputsFromOrder(o *models.Order) Inputs {
	return Inputs{
		ItemTotal:            o.ItemTotal,
		DriverPayout:         o.DriverPayout,
		Bonus:                o.Bonus,
		ServiceCharge:        o.ServiceCharge,
		RestaurantCommission: o.RestaurantCommission,
		Coupon:               o.Coupon,
	}
}

// Formula computes a contribution from the order's monetary fields.
type Formula func(in Inputs) decimal.Decimal

// Table maps each settlement class to its formula.
type Table map[models.SettlementClass]Formula

// DefaultTable returns the current business policy:
//
//	Returned:     item_total
//	Marketplace:  driver_payout + bonus
//	CashInstant:  driver_payout + bonus + coupon - restaurant_commission - service_charge
//	CashDeferred: bonus + coupon - item_total - service_charge
//	CardInstant:  driver_payout + item_total - restaurant_commission - service_charge + bonus
//	CardDeferred: driver_payout + bonus
//	Fallback:     driver_payout
func DefaultTable() Table {
	return Table{
		models.ClassReturned: func(in Inputs) decimal.Decimal {
			return in.ItemTotal
		},
		models.ClassMarketplace: func(in Inputs) decimal.Decimal {
			return in.DriverPayout.Add(in.Bonus)
		},
		models.ClassCashInstant: func(in Inputs) decimal.Decimal {
			return in.DriverPayout.Add(in.Bonus).Add(in.Coupon).
				Sub(in.RestaurantCommission).Sub(in.ServiceCharge)
		},
		models.ClassCashDeferred: func(in Inputs) decimal.Decimal {
			return in.Bonus.Add(in.Coupon).Sub(in.ItemTotal).Sub(in.ServiceCharge)
		},
		models.ClassCardInstant: func(in Inputs) decimal.Decimal {
			return in.DriverPayout.Add(in.ItemTotal).
				Sub(in.RestaurantCommission).Sub(in.ServiceCharge).Add(in.Bonus)
		},
		models.ClassCardDeferred: func(in Inputs) decimal.Decimal {
			return in.DriverPayout.Add(in.Bonus)
		},
		models.ClassFallback: func(in Inputs) decimal.Decimal {
			return in.DriverPayout
		},
	}
}

// Engine evaluates contributions using the default table with optional
// per-class overrides layered on top.
type Engine struct {
	table Table
}

// NewEngine creates a formula engine. Overrides replace individual entries
// of the default table; a nil or empty map yields the default policy.
func NewEngine(overrides Table) *Engine {
	table := DefaultTable()
	for class, f := range overrides {
		table[class] = f
	}
	return &Engine{table: table}
}

// Validate checks that every settlement class has a formula.
func (e *Engine) Validate() error {
	for _, class := range models.AllSettlementClasses() {
		if _, ok := e.table[class]; !ok {
			return fmt.Errorf("no formula registered for class %s", class)
		}
	}
	return nil
}

// Compute returns the contribution for a classified order. An unknown
// class falls back to the Fallback formula rather than failing the batch.
func (e *Engine) Compute(class models.SettlementClass, in Inputs) decimal.Decimal {
	f, ok := e.table[class]
	if !ok {
		f = e.table[models.ClassFallback]
	}
	return f(in)
}
