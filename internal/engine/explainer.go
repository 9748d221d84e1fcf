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
)

// Dimension names one of the four scoring criteria
type Dimension string

// Scoring dimensions, in tie-break order for explanations
const (
	DimensionCost        Dimension = "cost"
	DimensionScalability Dimension = "scalability"
	DimensionOperational Dimension = "operational"
	DimensionUseCase     Dimension = "use-case"
)

var dimensionOrder = []Dimension{DimensionCost, DimensionScalability, DimensionOperational, DimensionUseCase}

type reasonTemplate func(s ScoredService, req Requirements) string

var reasonTemplates = map[Dimension]reasonTemplate{
	DimensionCost: func(s ScoredService, req Requirements) string {
		return fmt.Sprintf("%s keeps this layer affordable at an estimated $%s/month (%s%% of your budget).",
			s.Entry.Name, s.Cost.StringFixed(2), budgetShare(s.Cost, req.MonthlyBudget))
	},
	DimensionScalability: func(s ScoredService, req Requirements) string {
		return fmt.Sprintf("%s offers %s scalability, enough for %s traffic of about %s requests a month.",
			s.Entry.Name, s.Entry.Scalability, req.Traffic, formatCount(RequestVolume(req.Traffic)))
	},
	DimensionOperational: func(s ScoredService, req Requirements) string {
		return fmt.Sprintf("%s needs %s operational effort, in line with your %s-effort preference.",
			s.Entry.Name, s.Entry.OperationalEffort, req.OperationalEffort)
	},
	DimensionUseCase: func(s ScoredService, req Requirements) string {
		return fmt.Sprintf("%s is a natural fit for %s applications.",
			s.Entry.Name, applicationLabel(req.ApplicationType))
	},
}

// Explain returns a one-sentence justification for a selected service, chosen
// by the sub-score that contributed most to its composite. Fallback
// selections carry an extra sentence naming the compromise.
func Explain(s ScoredService, req Requirements) string {
	reason := reasonTemplates[Dominant(s)](s, req)
	if s.Fallback {
		reason += fmt.Sprintf(" No %s service in the catalog targets %s applications, so this is the closest available option.",
			s.Entry.Category, applicationLabel(req.ApplicationType))
	}
	return reason
}

// Dominant returns the dimension with the largest weighted contribution.
// Ties go to the earlier dimension: cost, scalability, operational, use case.
func Dominant(s ScoredService) Dimension {
	contributions := map[Dimension]float64{
		DimensionCost:        s.Weights.Cost * s.Scores.Cost,
		DimensionScalability: s.Weights.Scalability * s.Scores.Scalability,
		DimensionOperational: s.Weights.Operational * s.Scores.Operational,
		DimensionUseCase:     s.Weights.UseCase * s.Scores.UseCase,
	}

	best := dimensionOrder[0]
	for _, d := range dimensionOrder[1:] {
		if contributions[d] > contributions[best] {
			best = d
		}
	}
	return best
}

func annotate(arch *Architecture, req Requirements) {
	for i := range arch.Selections {
		sel := &arch.Selections[i]
		sel.Reason = Explain(sel.ScoredService, req)
		if sel.BudgetFit {
			sel.Reason += fmt.Sprintf(" It is the lowest-cost %s option, chosen to bring the architecture closer to budget.", sel.Entry.Category)
		}
	}
}

func budgetShare(cost decimal.Decimal, budget float64) string {
	b := decimal.NewFromFloat(budget)
	if !b.IsPositive() {
		return "0.0"
	}
	return cost.Mul(hundred).Div(b).StringFixed(1)
}

func applicationLabel(appType string) string {
	return strings.ReplaceAll(appType, "-", " ")
}

func formatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
