// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/your-org/arch-planner/internal/catalog"
)

// DefaultMaxUpgrades caps the optional upgrade suggestions
const DefaultMaxUpgrades = 3

var hundred = decimal.NewFromInt(100)

// ValidateBudget compares the architecture's total cost to the budget and
// returns the status message shown to the user.
func ValidateBudget(arch Architecture, budget float64) (bool, string) {
	b := decimal.NewFromFloat(budget)
	total := arch.TotalCost

	if total.LessThanOrEqual(b) {
		headroom := b.Sub(total)
		used := decimal.Zero
		if b.IsPositive() {
			used = total.Mul(hundred).Div(b)
		}
		return true, fmt.Sprintf(
			"Estimated cost of $%s/month fits within your $%s budget with $%s to spare (%s%% of budget used).",
			total.StringFixed(2), b.StringFixed(2), headroom.StringFixed(2), used.StringFixed(1))
	}

	over := total.Sub(b)
	return false, fmt.Sprintf(
		"Estimated cost of $%s/month exceeds budget by $%s. Review the alternatives or raise the budget.",
		total.StringFixed(2), over.StringFixed(2))
}

// FitBudget brings an over-budget architecture closer to the budget. While the
// required layers cost more than the budget, the required selection with the
// largest saving is swapped for its category's cheapest candidate. Optional
// layers are then kept, in category order, only while the total stays within
// budget. An architecture that already fits is returned unchanged.
//
// The cheapest set does not depend on the budget, so raising the budget can
// never turn a fitting architecture into one that does not fit.
func FitBudget(arch Architecture, scored []ScoredService, required map[catalog.Category]bool, budget float64) Architecture {
	limit := decimal.NewFromFloat(budget)

	cheapest := make(map[catalog.Category]ScoredService)
	for _, s := range scored {
		current, ok := cheapest[s.Entry.Category]
		if !ok || cheaper(s, current) {
			cheapest[s.Entry.Category] = s
		}
	}

	selections := append([]Selection(nil), arch.Selections...)
	requiredTotal := func() decimal.Decimal {
		total := decimal.Zero
		for _, sel := range selections {
			if required[sel.Entry.Category] {
				total = total.Add(sel.Cost)
			}
		}
		return total
	}

	for requiredTotal().GreaterThan(limit) {
		swap, saving := -1, decimal.Zero
		for i, sel := range selections {
			if !required[sel.Entry.Category] {
				continue
			}
			if s := sel.Cost.Sub(cheapest[sel.Entry.Category].Cost); s.GreaterThan(saving) {
				swap, saving = i, s
			}
		}
		if swap < 0 {
			break
		}
		selections[swap] = Selection{ScoredService: cheapest[selections[swap].Entry.Category], BudgetFit: true}
	}

	out := arch
	out.Selections = nil
	out.Trimmed = nil
	total := requiredTotal()
	for _, sel := range selections {
		switch {
		case required[sel.Entry.Category]:
			out.Selections = append(out.Selections, sel)
		case total.Add(sel.Cost).LessThanOrEqual(limit):
			out.Selections = append(out.Selections, sel)
			total = total.Add(sel.Cost)
		default:
			out.Trimmed = append(out.Trimmed, sel.Entry.Category)
		}
	}
	out.TotalCost = out.total()
	return out
}

// cheaper ranks by cost alone, falling back to Better on equal cost
func cheaper(a, b ScoredService) bool {
	if cmp := a.Cost.Cmp(b.Cost); cmp != 0 {
		return cmp < 0
	}
	return Better(a, b)
}

// OptionalUpgrades suggests upgrade-only services that suit the request and
// would individually keep the architecture within budget, best first.
func OptionalUpgrades(cat *catalog.Catalog, req Requirements, arch Architecture, w Weights, limit int) []string {
	budget := decimal.NewFromFloat(req.MonthlyBudget)

	var fits []ScoredService
	for _, e := range cat.Entries() {
		if !e.UpgradeOnly || !passesHardRules(e, req) || !e.Supports(req.ApplicationType) {
			continue
		}
		s := Score(Candidate{Entry: e}, req, w)
		if arch.TotalCost.Add(s.Cost).LessThanOrEqual(budget) {
			fits = append(fits, s)
		}
	}

	sort.SliceStable(fits, func(i, j int) bool { return Better(fits[i], fits[j]) })
	if limit >= 0 && len(fits) > limit {
		fits = fits[:limit]
	}

	out := make([]string, 0, len(fits))
	for _, s := range fits {
		out = append(out, fmt.Sprintf("%s (+$%s/month): %s", s.Entry.Name, s.Cost.StringFixed(2), s.Entry.Description))
	}
	return out
}
