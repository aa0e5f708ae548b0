// Package settlement converts accumulated weights into a payable
// amount: per-category unit prices, minus a freight deduction over the
// total weight, plus a sack payment. The summary is recomputed in full
// on every read, so it is always consistent with the current ledger.
package settlement

import (
	"github.com/agropesa/backend-balanza/internal/ledger"
	"github.com/agropesa/backend-balanza/internal/safemath"
)

// Data holds the user-set settlement inputs for one entity. Only Data
// persists; summaries are derived.
type Data struct {
	Prices      map[string]float64 `json:"prices"`
	FreightRate float64            `json:"freightRate"`
	SackValue   float64            `json:"sackValue"`
}

// CategoryLine is one priced row of the settlement breakdown.
type CategoryLine struct {
	CategoryID    string  `json:"categoryId"`
	CategoryName  string  `json:"categoryName"`
	CategoryColor string  `json:"categoryColor"`
	TotalWeight   float64 `json:"totalWeight"`
	UnitPrice     float64 `json:"unitPrice"`
	Subtotal      float64 `json:"subtotal"`
}

// Summary is the derived settlement for one entity.
type Summary struct {
	CategoryBreakdown []CategoryLine `json:"categoryBreakdown"`
	GrossTotal        float64        `json:"grossTotal"`
	TotalWeight       float64        `json:"totalWeight"`
	FreightTotal      float64        `json:"freightTotal"`
	SackValue         float64        `json:"sackValue"`
	FinalAmount       float64        `json:"finalAmount"`
	HasData           bool           `json:"hasData"`
}

// Compute derives the settlement summary from the category directory in
// canonical order, the per-category weights of one entity, and the
// entity's settlement inputs. Categories without weight are skipped.
// Freight stays unrounded; rounding happens per price line and at the
// final amount only.
func Compute(categories []ledger.Category, weights map[string]float64, data Data) Summary {
	summary := Summary{CategoryBreakdown: []CategoryLine{}, SackValue: data.SackValue}

	for _, c := range categories {
		weight := weights[c.ID]
		if weight <= 0 {
			continue
		}
		price := data.Prices[c.ID]
		subtotal := safemath.WeightedCalc(weight, price)
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, CategoryLine{
			CategoryID:    c.ID,
			CategoryName:  c.Name,
			CategoryColor: c.Color,
			TotalWeight:   weight,
			UnitPrice:     price,
			Subtotal:      subtotal,
		})
		summary.GrossTotal = safemath.SafeAdd(summary.GrossTotal, subtotal)
		summary.TotalWeight = safemath.SafeAdd(summary.TotalWeight, weight)
	}

	summary.FreightTotal = safemath.SafeMult(summary.TotalWeight, data.FreightRate)
	summary.FinalAmount = safemath.RoundToTwo(safemath.SafeAdd(
		safemath.SafeSub(summary.GrossTotal, summary.FreightTotal),
		data.SackValue,
	))
	summary.HasData = summary.TotalWeight > 0
	return summary
}
