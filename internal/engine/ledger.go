package engine

import (
	"driver-settlement-engine/internal/models"
	"driver-settlement-engine/internal/normalize"
	"driver-settlement-engine/internal/schema"
	"driver-settlement-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// sumLedger reads an advance or credit table into per-driver totals keyed
// by normalized phone. A driver may appear on several rows; all amounts are
// summed, never overwritten. A nil table yields an empty map, which the
// merge treats as zero everywhere.
//
// When the phone or amount column cannot be resolved by name, the ledger
// falls back to positions 0 and 1. That branch exists for headerless
// exports only and always surfaces a warning.
func (s *SettlementService) sumLedger(
	table *schema.Table,
	name string,
	amountField string,
	result *Result,
) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	if table.IsEmpty() {
		return totals
	}

	phoneMatch, phoneOK := s.resolver.Resolve(table, schema.FieldDriverPhone)
	amountMatch, amountOK := s.resolver.Resolve(table, amountField)

	if !phoneOK || !amountOK {
		p, pOK := s.resolver.ResolvePositional(table, schema.FieldDriverPhone, 0)
		a, aOK := s.resolver.ResolvePositional(table, amountField, 1)
		if !pOK || !aOK {
			s.warn(result, errors.CodeMissingCriticalField,
				"%s table is missing phone or amount columns; available: %v; table skipped",
				name, table.Columns)
			return totals
		}
		if !phoneOK {
			phoneMatch = p
		}
		if !amountOK {
			amountMatch = a
		}
		s.warn(result, errors.CodeAmbiguousColumnMatch,
			"%s table headers not recognized; assuming column %d is phone and column %d is amount",
			name, phoneMatch.Index, amountMatch.Index)
	}

	for i := 0; i < table.NumRows(); i++ {
		phone := normalize.Phone(table.Cell(i, phoneMatch.Index), s.config.CountryCode)
		if phone == "" {
			continue
		}
		amount := normalize.Money(table.Cell(i, amountMatch.Index))
		totals[phone] = totals[phone].Add(amount)
	}

	s.logger.Infof("Summed %s for %d drivers", name, len(totals))
	return totals
}

// collectBankReferences reads the bank reference table into a map keyed by
// normalized account-holder name. This table is assumed to carry no
// reliable phone column. The first non-empty reference per name wins.
func (s *SettlementService) collectBankReferences(table *schema.Table, result *Result) map[string]string {
	refs := make(map[string]string)
	if table.IsEmpty() {
		return refs
	}

	nameMatch, nameOK := s.resolver.Resolve(table, schema.FieldAccountHolder)
	refMatch, refOK := s.resolver.Resolve(table, schema.FieldBankReference)

	if !nameOK || !refOK {
		s.warn(result, errors.CodeMissingCriticalField,
			"bank reference table is missing account holder or reference columns; available: %v; table skipped",
			table.Columns)
		return refs
	}

	for i := 0; i < table.NumRows(); i++ {
		name := normalize.Name(table.Cell(i, nameMatch.Index))
		if name == "" {
			continue
		}
		ref := table.Cell(i, refMatch.Index)
		if ref == "" {
			continue
		}
		if _, exists := refs[name]; !exists {
			refs[name] = ref
		}
	}

	s.logger.Infof("Collected bank references for %d account holders", len(refs))
	return refs
}

// collectReferencePassthrough gathers bank references carried on the order
// rows themselves, keyed by normalized phone. Used when the dedicated
// reference file is absent or has no match for a driver.
func (s *SettlementService) collectReferencePassthrough(orders []*models.ClassifiedOrder) map[string]string {
	refs := make(map[string]string)
	for _, o := range orders {
		if o.BankReference == "" || o.Phone == "" {
			continue
		}
		if _, exists := refs[o.Phone]; !exists {
			refs[o.Phone] = o.BankReference
		}
	}
	return refs
}

// buildRows left-joins the ledgers onto the per-driver earnings and
// computes the terminal balance:
//
//	net = base earnings - advance total + credit total
//
// Drivers absent from a ledger receive zero. Net may be negative: the
// driver then owes the platform.
func (s *SettlementService) buildRows(
	earnings []*models.DriverEarnings,
	advances map[string]decimal.Decimal,
	credits map[string]decimal.Decimal,
	references map[string]string,
	passthrough map[string]string,
) []*models.SettlementRow {
	rows := make([]*models.SettlementRow, 0, len(earnings))

	for _, e := range earnings {
		advance := advances[e.Phone]
		credit := credits[e.Phone]

		ref, ok := references[e.Name]
		if !ok {
			ref = passthrough[e.Phone]
		}

		displayName := e.DisplayName
		if displayName == "" {
			displayName = e.Name
		}

		rows = append(rows, &models.SettlementRow{
			DriverName:    displayName,
			Phone:         e.Phone,
			TotalOrders:   e.TotalOrders,
			BaseEarnings:  e.BaseEarnings,
			AdvanceTotal:  advance,
			CreditTotal:   credit,
			NetSettlement: e.BaseEarnings.Sub(advance).Add(credit),
			BankReference: ref,
		})
	}

	return rows
}
