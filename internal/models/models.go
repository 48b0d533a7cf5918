// Package models defines the core domain types of the settlement engine:
// orders, settlement classes, per-driver aggregates, and final report rows.
//
// All monetary values are decimal.Decimal so repeated runs over the same
// input produce byte-identical totals.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementClass is the mutually exclusive payout category assigned to
// every order. Exactly one formula applies per class.
type SettlementClass string

const (
	// ClassReturned covers orders marked as returned; the driver is owed
	// the item total they are carrying back.
	ClassReturned SettlementClass = "RETURNED"
	// ClassMarketplace covers non-food marketplace orders.
	ClassMarketplace SettlementClass = "MARKETPLACE"
	// ClassCashInstant covers cash orders at instantly-paid restaurants.
	ClassCashInstant SettlementClass = "CASH_INSTANT"
	// ClassCashDeferred covers cash orders at deferred-billing restaurants.
	ClassCashDeferred SettlementClass = "CASH_DEFERRED"
	// ClassCardInstant covers card orders at instantly-paid restaurants.
	ClassCardInstant SettlementClass = "CARD_INSTANT"
	// ClassCardDeferred covers card orders at deferred-billing restaurants.
	ClassCardDeferred SettlementClass = "CARD_DEFERRED"
	// ClassFallback applies when no other predicate matched.
	ClassFallback SettlementClass = "FALLBACK"
)

// String returns the string representation of the settlement class.
func (c SettlementClass) String() string {
	return string(c)
}

// IsValid checks if the settlement class is one of the known classes.
func (c SettlementClass) IsValid() bool {
	switch c {
	case ClassReturned, ClassMarketplace, ClassCashInstant, ClassCashDeferred,
		ClassCardInstant, ClassCardDeferred, ClassFallback:
		return true
	default:
		return false
	}
}

// AllSettlementClasses lists every settlement class in classification
// precedence order.
func AllSettlementClasses() []SettlementClass {
	return []SettlementClass{
		ClassReturned, ClassMarketplace, ClassCashInstant, ClassCashDeferred,
		ClassCardInstant, ClassCardDeferred, ClassFallback,
	}
}

// Order is one delivery transaction as produced by the tabular loader.
// It is immutable once built; the engine reads it and attaches results to a
// ClassifiedOrder.
type Order struct {
	OrderID        string `json:"order_id"`
	DriverPhone    string `json:"driver_phone"`
	DriverName     string `json:"driver_name"`
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	PaymentMethod  string `json:"payment_method"`
	Status         string `json:"status"`
	Returned       string `json:"returned"`
	Services       string `json:"services"`

	ItemTotal            decimal.Decimal `json:"item_total"`
	DriverPayout         decimal.Decimal `json:"driver_payout"`
	Bonus                decimal.Decimal `json:"bonus"`
	ServiceCharge        decimal.Decimal `json:"service_charge"`
	RestaurantCommission decimal.Decimal `json:"restaurant_commission"`
	Coupon               decimal.Decimal `json:"coupon"`

	// OrderTime is the business-day-adjusted timestamp. HasTime is false
	// when the source cell was missing or unparsable; such orders are never
	// excluded by a date filter.
	OrderTime time.Time `json:"order_time"`
	HasTime   bool      `json:"has_time"`

	// BankReference carried on the order row itself, used as a fallback
	// when the dedicated reference file has no match for the driver.
	BankReference string `json:"bank_reference,omitempty"`
}

// String returns a string representation of the Order.
func (o *Order) String() string {
	return fmt.Sprintf("Order{ID: %s, Driver: %s, Payment: %s, Status: %s}",
		o.OrderID, o.DriverPhone, o.PaymentMethod, o.Status)
}

// ClassifiedOrder is an order with its settlement class and computed
// contribution attached, kept for audit and the per-driver detail view.
type ClassifiedOrder struct {
	*Order
	Class        SettlementClass `json:"class"`
	Contribution decimal.Decimal `json:"contribution"`

	// Phone and Name are the normalized join keys used for aggregation.
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// DriverEarnings is the per-driver aggregate of order contributions.
// The normalized phone is the primary key; collapsing two raw phone strings
// onto one key merges their orders intentionally.
type DriverEarnings struct {
	Phone        string          `json:"phone"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name"`
	TotalOrders  int             `json:"total_orders"`
	BaseEarnings decimal.Decimal `json:"base_earnings"`
}

// String returns a string representation of the DriverEarnings.
func (d *DriverEarnings) String() string {
	return fmt.Sprintf("DriverEarnings{Phone: %s, Orders: %d, Base: %s}",
		d.Phone, d.TotalOrders, d.BaseEarnings.String())
}

// SettlementRow is one row of the final report: a driver's earnings merged
// with the external ledgers and the terminal balance.
type SettlementRow struct {
	DriverName    string          `json:"driver_name"`
	Phone         string          `json:"phone"`
	TotalOrders   int             `json:"total_orders"`
	BaseEarnings  decimal.Decimal `json:"base_earnings"`
	AdvanceTotal  decimal.Decimal `json:"advance_total"`
	CreditTotal   decimal.Decimal `json:"credit_total"`
	NetSettlement decimal.Decimal `json:"net_settlement"`
	BankReference string          `json:"bank_reference,omitempty"`
}

// Validate checks the terminal balance invariant on the row.
func (r *SettlementRow) Validate() error {
	if strings.TrimSpace(r.Phone) == "" && strings.TrimSpace(r.DriverName) == "" {
		return fmt.Errorf("settlement row has neither phone nor driver name")
	}

	expected := r.BaseEarnings.Sub(r.AdvanceTotal).Add(r.CreditTotal)
	if !r.NetSettlement.Equal(expected) {
		return fmt.Errorf("net settlement %s does not equal base %s - advance %s + credit %s",
			r.NetSettlement.String(), r.BaseEarnings.String(),
			r.AdvanceTotal.String(), r.CreditTotal.String())
	}

	return nil
}

// String returns a string representation of the SettlementRow.
func (r *SettlementRow) String() string {
	return fmt.Sprintf("SettlementRow{Driver: %s, Phone: %s, Net: %s}",
		r.DriverName, r.Phone, r.NetSettlement.String())
}
