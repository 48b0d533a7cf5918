package engine

import (
	"time"

	"driver-settlement-engine/internal/classify"
	"driver-settlement-engine/internal/formula"
	"driver-settlement-engine/internal/models"
	"driver-settlement-engine/internal/normalize"
	"driver-settlement-engine/internal/schema"
	"driver-settlement-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// orderColumns holds the resolved column indexes of the orders table. An
// index of -1 means the field is absent; cells then default to empty, and
// monetary fields to zero.
type orderColumns struct {
	orderID        int
	driverPhone    int
	driverName     int
	restaurantID   int
	restaurantName int
	paymentMethod  int
	status         int
	returned       int
	services       int
	itemTotal      int
	driverPayout   int
	bonus          int
	serviceCharge  int
	commission     int
	coupon         int
	orderDate      int
	bankReference  int
}

// resolveOrderColumns maps semantic fields onto the orders table. Driver
// phone and driver payout are critical: without them no driver can be
// identified or paid, so the run aborts with a field-named error listing
// the columns actually present. Every other field is optional.
func (s *SettlementService) resolveOrderColumns(orders *schema.Table, result *Result) (*orderColumns, error) {
	critical := func(field string) (int, error) {
		match, ok := s.resolver.Resolve(orders, field)
		if !ok {
			return -1, errors.MissingCriticalFieldError(field, orders.Columns)
		}
		if match.Ambiguous() {
			ambErr := errors.AmbiguousColumnError(field, match.Column, match.Candidates)
			s.warn(result, errors.CodeAmbiguousColumnMatch, "%s", ambErr.Message)
		}
		return match.Index, nil
	}

	optional := func(field string) int {
		match, ok := s.resolver.Resolve(orders, field)
		if !ok {
			return -1
		}
		if match.Ambiguous() {
			ambErr := errors.AmbiguousColumnError(field, match.Column, match.Candidates)
			s.warn(result, errors.CodeAmbiguousColumnMatch, "%s", ambErr.Message)
		}
		return match.Index
	}

	phone, err := critical(schema.FieldDriverPhone)
	if err != nil {
		return nil, err
	}
	payout, err := critical(schema.FieldDriverPayout)
	if err != nil {
		return nil, err
	}

	return &orderColumns{
		orderID:        optional(schema.FieldOrderID),
		driverPhone:    phone,
		driverName:     optional(schema.FieldDriverName),
		restaurantID:   optional(schema.FieldRestaurantID),
		restaurantName: optional(schema.FieldRestaurantName),
		paymentMethod:  optional(schema.FieldPaymentMethod),
		status:         optional(schema.FieldStatus),
		returned:       optional(schema.FieldReturned),
		services:       optional(schema.FieldServices),
		itemTotal:      optional(schema.FieldItemTotal),
		driverPayout:   payout,
		bonus:          optional(schema.FieldBonus),
		serviceCharge:  optional(schema.FieldServiceCharge),
		commission:     optional(schema.FieldRestaurantCommission),
		coupon:         optional(schema.FieldCoupon),
		orderDate:      optional(schema.FieldOrderDate),
		bankReference:  optional(schema.FieldBankReference),
	}, nil
}

// buildDeferredSet loads the deferred restaurant identifiers and names from
// the optional deferred-restaurants table. When the table has no
// recognizable identifier column, the first column is used positionally
// with a warning.
func (s *SettlementService) buildDeferredSet(table *schema.Table, result *Result) *classify.DeferredSet {
	set := classify.NewDeferredSet()
	if table.IsEmpty() {
		return set
	}

	idMatch, idOK := s.resolver.Resolve(table, schema.FieldRestaurantID)
	nameMatch, nameOK := s.resolver.Resolve(table, schema.FieldRestaurantName)

	if !idOK && !nameOK {
		if positional, ok := s.resolver.ResolvePositional(table, schema.FieldRestaurantID, 0); ok {
			idMatch, idOK = positional, true
			s.warn(result, errors.CodeAmbiguousColumnMatch,
				"deferred restaurants table has no recognizable identifier column; using first column '%s' positionally",
				positional.Column)
		}
	}

	for i := 0; i < table.NumRows(); i++ {
		if idOK {
			set.AddID(table.Cell(i, idMatch.Index))
		}
		if nameOK {
			set.AddName(table.Cell(i, nameMatch.Index))
		}
	}

	s.logger.Infof("Loaded %d deferred restaurant entries", set.Len())
	return set
}

// classifyOrders walks the orders table once, building, filtering,
// classifying, and pricing each row.
func (s *SettlementService) classifyOrders(
	orders *schema.Table,
	columns *orderColumns,
	classifier *classify.Classifier,
	result *Result,
) {
	result.Summary.TotalOrders = orders.NumRows()

	for i := 0; i < orders.NumRows(); i++ {
		order := s.buildOrder(orders, columns, i)

		if !s.inDateRange(order) {
			result.Summary.FilteredOrders++
			continue
		}

		class := classifier.Classify(order)
		contribution := s.formulas.Compute(class, formula.InputsFromOrder(order))

		result.Orders = append(result.Orders, &models.ClassifiedOrder{
			Order:        order,
			Class:        class,
			Contribution: contribution,
			Phone:        normalize.Phone(order.DriverPhone, s.config.CountryCode),
			Name:         normalize.Name(order.DriverName),
		})
	}
}

// buildOrder converts one table row into an Order. Monetary cells are
// parsed totally: malformed or missing values become zero. The order
// timestamp gets the business-day shift before any date filtering.
func (s *SettlementService) buildOrder(orders *schema.Table, c *orderColumns, row int) *models.Order {
	cell := func(col int) string {
		if col < 0 {
			return ""
		}
		return orders.Cell(row, col)
	}
	money := func(col int) decimal.Decimal {
		return normalize.Money(cell(col))
	}

	order := &models.Order{
		OrderID:              cell(c.orderID),
		DriverPhone:          cell(c.driverPhone),
		DriverName:           cell(c.driverName),
		RestaurantID:         cell(c.restaurantID),
		RestaurantName:       cell(c.restaurantName),
		PaymentMethod:        cell(c.paymentMethod),
		Status:               cell(c.status),
		Returned:             cell(c.returned),
		Services:             cell(c.services),
		ItemTotal:            money(c.itemTotal),
		DriverPayout:         money(c.driverPayout),
		Bonus:                money(c.bonus),
		ServiceCharge:        money(c.serviceCharge),
		RestaurantCommission: money(c.commission),
		Coupon:               money(c.coupon),
		BankReference:        cell(c.bankReference),
	}

	if t, ok := normalize.Date(cell(c.orderDate)); ok {
		order.OrderTime = normalize.BusinessDay(t)
		order.HasTime = true
	}

	return order
}

// inDateRange applies the optional date filter. Orders without a parsable
// timestamp are kept: an unreadable date must not silently drop revenue.
func (s *SettlementService) inDateRange(order *models.Order) bool {
	if !order.HasTime {
		return true
	}

	day := truncateToDay(order.OrderTime)
	if s.config.StartDate != nil && day.Before(truncateToDay(*s.config.StartDate)) {
		return false
	}
	if s.config.EndDate != nil && day.After(truncateToDay(*s.config.EndDate)) {
		return false
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
