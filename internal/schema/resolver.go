package schema

import (
	"strings"
)

// Semantic fields the engine resolves on input tables.
const (
	FieldOrderID              = "order id"
	FieldDriverPhone          = "driver phone"
	FieldDriverName           = "driver name"
	FieldRestaurantID         = "restaurant id"
	FieldRestaurantName       = "restaurant name"
	FieldPaymentMethod        = "payment method"
	FieldStatus               = "status"
	FieldReturned             = "returned"
	FieldServices             = "services"
	FieldItemTotal            = "item total"
	FieldDriverPayout         = "driver payout"
	FieldBonus                = "bonus amount"
	FieldServiceCharge        = "service charge"
	FieldRestaurantCommission = "restaurant commission"
	FieldCoupon               = "coupon amount"
	FieldOrderDate            = "order date"
	FieldAdvanceAmount        = "advance amount"
	FieldCreditAmount         = "credit amount"
	FieldAccountHolder        = "account holder"
	FieldBankReference        = "bank reference"
)

// MatchKind describes how a column was resolved.
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchSubstring  MatchKind = "substring"
	MatchPositional MatchKind = "positional"
)

// Match is the result of resolving a semantic field against a table.
type Match struct {
	Field  string
	Column string
	Index  int
	Kind   MatchKind

	// Candidates lists every column that matched when more than one did.
	// The first match is always the one used.
	Candidates []string
}

// Ambiguous reports whether more than one column matched the field.
func (m Match) Ambiguous() bool {
	return len(m.Candidates) > 1
}

// Resolver maps semantic fields to physical columns using a declarative
// synonym table. The table is data, not code: new header variants are
// added to the synonym lists, never to matching logic.
type Resolver struct {
	synonyms map[string][]string
}

// DefaultSynonyms returns the built-in synonym table. Keys are semantic
// fields; values are accepted header spellings, compared case-insensitively
// after header cleaning.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		FieldOrderID:              {"order id", "order_id", "id", "order number"},
		FieldDriverPhone:          {"driver phone", "driver_phone", "phone", "telephone", "tel", "gsm", "mobile"},
		FieldDriverName:           {"driver name", "driver_name", "driver", "courier name"},
		FieldRestaurantID:         {"restaurant id", "restaurant_id", "resto id", "store id"},
		FieldRestaurantName:       {"restaurant name", "restaurant_name", "resto name", "store name"},
		FieldPaymentMethod:        {"payment method", "payment_method", "payment", "pay method"},
		FieldStatus:               {"status", "order status", "state"},
		FieldReturned:             {"returned", "return", "returned at"},
		FieldServices:             {"services", "service", "service type", "vertical"},
		FieldItemTotal:            {"item total", "item_total", "items total", "basket total"},
		FieldDriverPayout:         {"driver payout", "driver_payout", "payout", "delivery fee"},
		FieldBonus:                {"bonus amount", "bonus_amount", "bonus"},
		FieldServiceCharge:        {"service charge", "service_charge", "service fee"},
		FieldRestaurantCommission: {"restaurant commission", "restaurant_commission", "resto commission", "commission"},
		FieldCoupon:               {"coupon amount", "coupon_amount", "coupon", "discount", "promo amount"},
		FieldOrderDate:            {"order day", "order date", "created at", "order time", "date"},
		FieldAdvanceAmount:        {"avance", "advance", "advance amount", "montant avance"},
		FieldCreditAmount:         {"amount", "credit", "credit amount", "montant credit"},
		FieldAccountHolder:        {"intitulé du compte", "intitule du compte", "account holder", "titulaire", "account name"},
		FieldBankReference:        {"rib", "iban", "bank reference", "account number"},
	}
}

// NewResolver creates a resolver with the default synonym table.
func NewResolver() *Resolver {
	return &Resolver{synonyms: DefaultSynonyms()}
}

// NewResolverWithSynonyms creates a resolver with extra synonyms layered
// over the defaults. Extra entries are appended after the defaults so
// built-in spellings keep precedence.
func NewResolverWithSynonyms(extra map[string][]string) *Resolver {
	syn := DefaultSynonyms()
	for field, names := range extra {
		syn[field] = append(syn[field], names...)
	}
	return &Resolver{synonyms: syn}
}

// Resolve finds the column carrying the given semantic field. Resolution
// order: exact case-insensitive synonym match, then substring containment.
// The boolean is false when no column matched; callers distinguish that
// from a resolved column whose cells happen to be empty.
func (r *Resolver) Resolve(t *Table, field string) (Match, bool) {
	synonyms, ok := r.synonyms[field]
	if !ok {
		synonyms = []string{field}
	}

	if m, ok := r.matchExact(t, field, synonyms); ok {
		return m, true
	}
	return r.matchSubstring(t, field, synonyms)
}

func (r *Resolver) matchExact(t *Table, field string, synonyms []string) (Match, bool) {
	var candidates []string
	match := Match{Field: field, Kind: MatchExact, Index: -1}

	for i, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, syn := range synonyms {
			if lower == strings.ToLower(syn) {
				if match.Index < 0 {
					match.Column = col
					match.Index = i
				}
				candidates = append(candidates, col)
				break
			}
		}
	}

	if match.Index < 0 {
		return Match{}, false
	}
	match.Candidates = candidates
	return match, true
}

func (r *Resolver) matchSubstring(t *Table, field string, synonyms []string) (Match, bool) {
	var candidates []string
	match := Match{Field: field, Kind: MatchSubstring, Index: -1}

	for i, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, syn := range synonyms {
			if strings.Contains(lower, strings.ToLower(syn)) {
				if match.Index < 0 {
					match.Column = col
					match.Index = i
				}
				candidates = append(candidates, col)
				break
			}
		}
	}

	if match.Index < 0 {
		return Match{}, false
	}
	match.Candidates = candidates
	return match, true
}

// ResolvePositional returns a positional fallback match for tables known to
// carry no header guarantees. It is the lowest-priority branch: callers use
// it only after Resolve failed, and must surface a reconciliation warning
// when they do.
func (r *Resolver) ResolvePositional(t *Table, field string, index int) (Match, bool) {
	if t == nil || index < 0 || index >= len(t.Columns) {
		return Match{}, false
	}
	return Match{
		Field:  field,
		Column: t.Columns[index],
		Index:  index,
		Kind:   MatchPositional,
	}, true
}
