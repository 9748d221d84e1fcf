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
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/your-org/arch-planner/internal/catalog"
)

// Selection is one chosen service with its justification
type Selection struct {
	ScoredService
	Reason string
	// BudgetFit marks a selection swapped for its category's cheapest
	// candidate to bring the architecture within budget.
	BudgetFit bool
}

// Architecture is a set of selected services, at most one per category,
// ordered by canonical category order.
type Architecture struct {
	Name             string
	Description      string
	Selections       []Selection
	TotalCost        decimal.Decimal
	OptionalUpgrades []string
	// Trimmed lists optional categories left out to stay within budget
	Trimmed []catalog.Category
}

// Select picks the best-ranked service of every category present in scored
// and assembles them into an architecture. Categories without candidates are
// omitted.
func Select(scored []ScoredService) Architecture {
	best := make(map[catalog.Category]ScoredService)
	for _, s := range scored {
		current, ok := best[s.Entry.Category]
		if !ok || Better(s, current) {
			best[s.Entry.Category] = s
		}
	}

	var arch Architecture
	for _, category := range catalog.Categories {
		if s, ok := best[category]; ok {
			arch.Selections = append(arch.Selections, Selection{ScoredService: s})
		}
	}
	arch.TotalCost = arch.total()
	return arch
}

// Services returns the selected scored services in order
func (a Architecture) Services() []ScoredService {
	out := make([]ScoredService, len(a.Selections))
	for i, s := range a.Selections {
		out[i] = s.ScoredService
	}
	return out
}

// ServiceNames returns the display names of the selected services in order
func (a Architecture) ServiceNames() []string {
	out := make([]string, len(a.Selections))
	for i, s := range a.Selections {
		out[i] = s.Entry.Name
	}
	return out
}

// Has reports whether the architecture covers the category
func (a Architecture) Has(category catalog.Category) bool {
	for _, s := range a.Selections {
		if s.Entry.Category == category {
			return true
		}
	}
	return false
}

// HasTrait reports whether any selected service carries the trait
func (a Architecture) HasTrait(t catalog.Trait) bool {
	for _, s := range a.Selections {
		if s.Entry.HasTrait(t) {
			return true
		}
	}
	return false
}

// Trims reports whether the category was left out to stay within budget
func (a Architecture) Trims(category catalog.Category) bool {
	for _, c := range a.Trimmed {
		if c == category {
			return true
		}
	}
	return false
}

// HasFallback reports whether any selection was admitted as a fallback
func (a Architecture) HasFallback() bool {
	for _, s := range a.Selections {
		if s.Fallback {
			return true
		}
	}
	return false
}

// Key identifies the architecture's service set independent of order
func (a Architecture) Key() string {
	ids := make([]string, len(a.Selections))
	for i, s := range a.Selections {
		ids[i] = s.Entry.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func (a Architecture) total() decimal.Decimal {
	return TotalCost(a.Services())
}
