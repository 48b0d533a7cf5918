package engine

import (
	"driver-settlement-engine/internal/models"
)

// aggregate groups classified orders by normalized phone and sums their
// contributions. The normalized name serves as the grouping key only when
// the phone is empty, so nameless cash rows without a phone still settle.
//
// Groups are kept in first-appearance order, which makes the report
// deterministic without relying on map iteration order.
func (s *SettlementService) aggregate(orders []*models.ClassifiedOrder) []*models.DriverEarnings {
	var out []*models.DriverEarnings
	byKey := make(map[string]*models.DriverEarnings)

	for _, o := range orders {
		key := o.Phone
		if key == "" {
			key = "name:" + o.Name
		}

		group, ok := byKey[key]
		if !ok {
			group = &models.DriverEarnings{
				Phone: o.Phone,
				Name:  o.Name,
			}
			byKey[key] = group
			out = append(out, group)
		}

		group.TotalOrders++
		group.BaseEarnings = group.BaseEarnings.Add(o.Contribution)

		// First non-empty raw name wins for display.
		if group.DisplayName == "" && o.DriverName != "" {
			group.DisplayName = o.DriverName
		}
		if group.Name == "" && o.Name != "" {
			group.Name = o.Name
		}
	}

	return out
}
