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
	"github.com/shopspring/decimal"

	"github.com/your-org/arch-planner/internal/catalog"
)

// Weights are the relative importance of the four sub-scores
type Weights struct {
	Cost        float64 `json:"cost"`
	Scalability float64 `json:"scalability"`
	Operational float64 `json:"operational"`
	UseCase     float64 `json:"useCase"`
}

// DefaultWeights are used for the primary architecture
var DefaultWeights = Weights{Cost: 0.40, Scalability: 0.30, Operational: 0.20, UseCase: 0.10}

// SubScores are the normalized [0,1] match scores of one entry
type SubScores struct {
	Cost        float64 `json:"cost"`
	Scalability float64 `json:"scalability"`
	Operational float64 `json:"operational"`
	UseCase     float64 `json:"useCase"`
}

// ScoredService is an entry scored against one request
type ScoredService struct {
	Entry     catalog.Entry
	Scores    SubScores
	Composite float64
	Cost      decimal.Decimal
	Fallback  bool
	Weights   Weights
}

// Score computes the sub-scores and the weighted composite of a candidate
func Score(c Candidate, req Requirements, w Weights) ScoredService {
	cost := EstimateCost(c.Entry, req)
	scores := SubScores{
		Cost:        costMatch(cost, req.MonthlyBudget),
		Scalability: scalabilityMatch(c.Entry.Scalability, req.Traffic),
		Operational: operationalMatch(c.Entry.OperationalEffort, req.OperationalEffort),
		UseCase:     useCaseMatch(c, req.ApplicationType),
	}

	return ScoredService{
		Entry:     c.Entry,
		Scores:    scores,
		Composite: w.Cost*scores.Cost + w.Scalability*scores.Scalability + w.Operational*scores.Operational + w.UseCase*scores.UseCase,
		Cost:      cost,
		Fallback:  c.Fallback,
		Weights:   w,
	}
}

// ScoreAll scores every candidate, preserving order
func ScoreAll(candidates []Candidate, req Requirements, w Weights) []ScoredService {
	out := make([]ScoredService, len(candidates))
	for i, c := range candidates {
		out[i] = Score(c, req, w)
	}
	return out
}

// Better reports whether a ranks ahead of b: higher composite, then lower
// cost, then earlier catalog position.
func Better(a, b ScoredService) bool {
	if a.Composite != b.Composite {
		return a.Composite > b.Composite
	}
	if cmp := a.Cost.Cmp(b.Cost); cmp != 0 {
		return cmp < 0
	}
	return a.Entry.Priority < b.Entry.Priority
}

func costMatch(cost decimal.Decimal, budget float64) float64 {
	b := decimal.NewFromFloat(budget)
	if !b.IsPositive() {
		return 0
	}
	score := decimal.NewFromInt(1).Sub(cost.Div(b))
	if score.IsNegative() {
		return 0
	}
	return score.InexactFloat64()
}

func scalabilityMatch(entry, traffic catalog.Tier) float64 {
	switch gap := int(traffic) - int(entry); {
	case gap <= 0:
		return 1.0
	case gap == 1:
		return 0.5
	default:
		return 0
	}
}

func operationalMatch(entry, preferred catalog.Tier) float64 {
	gap := int(entry) - int(preferred)
	if gap < 0 {
		gap = -gap
	}
	switch gap {
	case 0:
		return 1.0
	case 1:
		return 0.5
	default:
		return 0
	}
}

func useCaseMatch(c Candidate, applicationType string) float64 {
	switch {
	case c.Fallback:
		return 0
	case c.Entry.Lists(applicationType):
		return 1.0
	case c.Entry.Agnostic():
		return 0.5
	default:
		return 0
	}
}
