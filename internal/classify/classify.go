// Package classify assigns every order to exactly one settlement class.
//
// Classification is a single ordered decision list with no loops: the first
// matching predicate wins, so exclusivity comes from evaluation order, not
// from the predicates themselves. Reordering the list changes financial
// outcomes.
package classify

import (
	"strings"

	"driver-settlement-engine/internal/models"
	"driver-settlement-engine/internal/normalize"
)

// DeferredSet holds the restaurants settled on deferred terms, keyed by
// identifier and by normalized name. Loaded once per run; read-only during
// the run.
type DeferredSet struct {
	ids   map[string]struct{}
	names map[string]struct{}
}

// NewDeferredSet creates an empty deferred restaurant set.
func NewDeferredSet() *DeferredSet {
	return &DeferredSet{
		ids:   make(map[string]struct{}),
		names: make(map[string]struct{}),
	}
}

// AddID registers a restaurant identifier as deferred.
func (s *DeferredSet) AddID(id string) {
	id = strings.TrimSpace(id)
	if id != "" {
		s.ids[id] = struct{}{}
	}
}

// AddName registers a restaurant name as deferred. Names are normalized
// before storage so lookups survive case and whitespace differences.
func (s *DeferredSet) AddName(name string) {
	name = normalize.Name(name)
	if name != "" {
		s.names[name] = struct{}{}
	}
}

// Contains reports whether a restaurant is in the deferred set, by
// identifier or by normalized name.
func (s *DeferredSet) Contains(id, name string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.ids[strings.TrimSpace(id)]; ok {
		return true
	}
	_, ok := s.names[normalize.Name(name)]
	return ok
}

// Len returns the number of registered identifiers and names.
func (s *DeferredSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids) + len(s.names)
}

// deferredLabelTokens are payment-method substrings that signal deferred or
// corporate billing on the label itself. A restaurant is deferred when it
// is in the uploaded list OR its payment label carries one of these.
var deferredLabelTokens = []string{
	"deferred",
	"corporate",
	"cash-co",
	"cash co",
	"15 day",
	"15-day",
}

// cardTokens match card payments: the generic label, the CB card-brand
// alias, and processor brand tokens.
var cardTokens = []string{"card", "cb", "visa", "mastercard", "cmi"}

// Classifier assigns settlement classes to orders.
type Classifier struct {
	deferred *DeferredSet
}

// NewClassifier creates a classifier over the given deferred restaurant
// set. A nil set means no restaurant is list-deferred; the payment-label
// signal still applies.
func NewClassifier(deferred *DeferredSet) *Classifier {
	if deferred == nil {
		deferred = NewDeferredSet()
	}
	return &Classifier{deferred: deferred}
}

// Classify assigns the order its settlement class. The decision list, in
// order:
//
//  1. Returned: status contains "returned" or the returned marker is set
//  2. Marketplace: services contains "yassir market"
//  3. Cash, split instant/deferred
//  4. Card (including CB and processor brands), split instant/deferred
//  5. Fallback
func (c *Classifier) Classify(o *models.Order) models.SettlementClass {
	status := strings.ToLower(o.Status)
	services := strings.ToLower(o.Services)
	payment := strings.ToLower(o.PaymentMethod)

	if strings.Contains(status, "returned") || strings.TrimSpace(o.Returned) != "" {
		return models.ClassReturned
	}

	if strings.Contains(services, "yassir market") {
		return models.ClassMarketplace
	}

	if strings.Contains(payment, "cash") {
		if c.isDeferred(o, payment) {
			return models.ClassCashDeferred
		}
		return models.ClassCashInstant
	}

	if containsAny(payment, cardTokens) {
		if c.isDeferred(o, payment) {
			return models.ClassCardDeferred
		}
		return models.ClassCardInstant
	}

	return models.ClassFallback
}

// isDeferred combines both deferred signals: membership in the uploaded
// list and a deferred/corporate tag on the payment label itself.
func (c *Classifier) isDeferred(o *models.Order, paymentLower string) bool {
	if c.deferred.Contains(o.RestaurantID, o.RestaurantName) {
		return true
	}
	return containsAny(paymentLower, deferredLabelTokens)
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
