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
	"strings"

	"github.com/shopspring/decimal"

	"github.com/your-org/arch-planner/internal/catalog"
)

// DefaultTightBudgetThreshold is the monthly budget below which the
// availability trade-off is called out
const DefaultTightBudgetThreshold = 50.0

// Statement is one titled line of the recommendation narrative
type Statement struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Narrative is the structured commentary attached to a recommendation
type Narrative struct {
	RejectedOptions   []Statement
	TradeOffs         []Statement
	ConstraintImpacts []Statement
	OmittedCategories []Statement
	Assumptions       []Statement
}

// facts are the boolean predicates the narrative tables are keyed on
type facts struct {
	serverless     bool
	loadBalancer   bool
	tightBudget    bool
	lowOps         bool
	withinBudget   bool
	databaseNeeded bool
	threshold      decimal.Decimal
	budget         decimal.Decimal
	traffic        catalog.Tier
	effort         catalog.Tier
}

// outcome maps both results of one predicate to a statement. A nil side
// contributes nothing.
type outcome struct {
	test    func(f facts) bool
	onTrue  func(f facts) *Statement
	onFalse func(f facts) *Statement
}

func fixed(title, detail string) func(facts) *Statement {
	return func(facts) *Statement { return &Statement{Title: title, Detail: detail} }
}

func always(facts) bool { return true }

var rejectedOptionRules = []outcome{
	{
		test: func(f facts) bool { return f.serverless },
		onTrue: fixed("EC2/VM-based solutions",
			"Self-managed virtual machines were passed over because serverless services scale automatically and need no patching."),
		onFalse: fixed("Serverless functions (Lambda)",
			"Per-request functions were passed over in favour of long-running containers or instances that suit this workload better."),
	},
	{
		test: func(f facts) bool { return f.loadBalancer },
		onTrue: fixed("Single-instance deployment",
			"Running on one instance was rejected; traffic is spread across several targets behind a load balancer."),
		onFalse: fixed("Dedicated load balancing",
			"A separate load balancer is unnecessary because the selected services distribute traffic natively."),
	},
}

var tradeOffRules = []outcome{
	{
		test: func(f facts) bool { return f.tightBudget },
		onTrue: func(f facts) *Statement {
			return &Statement{
				Title:  "Availability vs. Cost",
				Detail: fmt.Sprintf("With a budget under $%s the design favours pay-per-use services over redundant standby capacity.", f.threshold.StringFixed(0)),
			}
		},
	},
	{
		test: func(f facts) bool { return f.lowOps },
		onTrue: fixed("Control vs. Convenience",
			"Fully managed services remove most operational work at the price of fine-grained control over the runtime."),
		onFalse: fixed("Convenience vs. Cost/Control",
			"Accepting more operational work unlocks cheaper or more tunable options than fully managed services."),
	},
	{
		test: always,
		onTrue: fixed("Simplicity vs. Scalability",
			"The architecture uses the fewest services that meet the traffic tier; more layers can be added as load grows."),
	},
}

var constraintImpactRules = []outcome{
	{
		test: func(f facts) bool { return f.withinBudget },
		onTrue: func(f facts) *Statement {
			return &Statement{Title: "Budget", Detail: fmt.Sprintf("All selected services fit inside the $%s monthly budget.", f.budget.StringFixed(2))}
		},
		onFalse: func(f facts) *Statement {
			return &Statement{Title: "Budget", Detail: fmt.Sprintf("No combination of required services fits a $%s monthly budget; cheaper alternatives are listed.", f.budget.StringFixed(2))}
		},
	},
	{
		test: func(f facts) bool { return f.traffic == catalog.TierHigh },
		onTrue: fixed("Traffic",
			"High traffic ruled out services that cannot scale to around 200,000 requests a month."),
		onFalse: func(f facts) *Statement {
			return &Statement{Title: "Traffic", Detail: fmt.Sprintf("%s traffic allows lower-tier services wherever they are cheaper.", capitalize(f.traffic.String()))}
		},
	},
	{
		test: func(f facts) bool { return f.databaseNeeded },
		onTrue: fixed("Database", "A managed database layer was included because the application stores structured data."),
		onFalse: fixed("Database", "No database layer was added because none is required."),
	},
	{
		test: always,
		onTrue: func(f facts) *Statement {
			return &Statement{Title: "Operational effort", Detail: fmt.Sprintf("Services were matched against a %s operational-effort preference.", f.effort)}
		},
	},
}

var assumptions = []Statement{
	{Title: "Pricing", Detail: "Costs use simplified on-demand list prices for us-east-1 and exclude taxes, support plans and free-tier credits."},
	{Title: "Traffic", Detail: "Traffic tiers assume 10,000 (low), 50,000 (medium) and 200,000 (high) requests per month."},
	{Title: "Storage", Detail: "The full storage volume is assumed to be in use for the whole month."},
	{Title: "Data transfer", Detail: "Data transfer out of AWS is not included in the estimates."},
}

// Narrate derives the narrative for a final architecture. It has no effect
// on selection.
func Narrate(arch Architecture, req Requirements, tightBudgetThreshold float64) Narrative {
	budget := decimal.NewFromFloat(req.MonthlyBudget)
	threshold := decimal.NewFromFloat(tightBudgetThreshold)
	f := facts{
		serverless:     arch.HasTrait(catalog.TraitServerless),
		loadBalancer:   arch.HasTrait(catalog.TraitLoadBalancer),
		tightBudget:    budget.LessThan(threshold),
		lowOps:         req.OperationalEffort == catalog.TierLow,
		withinBudget:   arch.TotalCost.LessThanOrEqual(budget),
		databaseNeeded: req.DatabaseNeeded,
		threshold:      threshold,
		budget:         budget,
		traffic:        req.Traffic,
		effort:         req.OperationalEffort,
	}

	return Narrative{
		RejectedOptions:   evaluate(rejectedOptionRules, f),
		TradeOffs:         evaluate(tradeOffRules, f),
		ConstraintImpacts: evaluate(constraintImpactRules, f),
		OmittedCategories: omittedCategories(arch, req),
		Assumptions:       append([]Statement(nil), assumptions...),
	}
}

func evaluate(rules []outcome, f facts) []Statement {
	out := []Statement{}
	for _, r := range rules {
		pick := r.onFalse
		if r.test(f) {
			pick = r.onTrue
		}
		if pick == nil {
			continue
		}
		if s := pick(f); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func omittedCategories(arch Architecture, req Requirements) []Statement {
	out := []Statement{}
	for _, category := range catalog.Categories {
		if arch.Has(category) {
			continue
		}
		detail := fmt.Sprintf("No %s service suits a %s application.", category, applicationLabel(req.ApplicationType))
		switch {
		case category == catalog.Database && !req.DatabaseNeeded:
			detail = "Excluded because no database was requested."
		case arch.Trims(category):
			detail = "Optional layer left out to keep the architecture within budget."
		}
		out = append(out, Statement{Title: capitalize(string(category)), Detail: detail})
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
