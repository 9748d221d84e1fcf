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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/arch-planner/internal/catalog"
)

func lookup(t *testing.T, cat *catalog.Catalog, id string) catalog.Entry {
	t.Helper()
	e, ok := cat.Lookup(id)
	require.True(t, ok, "missing catalog entry %s", id)
	return e
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func TestEstimateCost(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name    string
		id      string
		traffic catalog.Tier
		storage int
		want    string
	}{
		{"per request and storage", "s3", catalog.TierLow, 50, "1.154"},
		{"tier fee and per request", "cloudfront", catalog.TierLow, 50, "0.51"},
		{"lambda at high traffic", "lambda", catalog.TierHigh, 0, "5.04"},
		{"base plus tier fee", "alb", catalog.TierMedium, 0, "22.43"},
		{"all components", "dynamodb", catalog.TierMedium, 20, "8.0625"},
		{"free", "iam", catalog.TierHigh, 1000, "0"},
		{"storage only", "efs", catalog.TierHigh, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Requirements{
				ApplicationType:   AppFullStack,
				Traffic:           tt.traffic,
				StorageGB:         tt.storage,
				OperationalEffort: catalog.TierLow,
				MonthlyBudget:     100,
			}
			assertDecimal(t, tt.want, EstimateCost(lookup(t, cat, tt.id), req))
		})
	}
}

func TestEstimateCost_PerTrafficUnit(t *testing.T) {
	entry := catalog.Entry{Cost: catalog.CostModel{PerTrafficUnit: 0.5}}
	req := Requirements{Traffic: catalog.TierHigh}
	// 200,000 requests = 20 units
	assertDecimal(t, "10", EstimateCost(entry, req))
}

func TestScore(t *testing.T) {
	cat := testCatalog(t)
	s := Score(Candidate{Entry: lookup(t, cat, "s3")}, staticWebsite(20), DefaultWeights)

	assertDecimal(t, "1.154", s.Cost)
	assert.InDelta(t, 0.9423, s.Scores.Cost, 1e-9)
	assert.Equal(t, 1.0, s.Scores.Scalability)
	assert.Equal(t, 1.0, s.Scores.Operational)
	assert.Equal(t, 1.0, s.Scores.UseCase)
	assert.InDelta(t, 0.97692, s.Composite, 1e-9)
	assert.False(t, s.Fallback)
	assert.Equal(t, DefaultWeights, s.Weights)
}

func TestScore_UseCase(t *testing.T) {
	cat := testCatalog(t)
	req := staticWebsite(20)

	agnostic := Score(Candidate{Entry: lookup(t, cat, "cloudwatch")}, req, DefaultWeights)
	assert.Equal(t, 0.5, agnostic.Scores.UseCase)

	fallback := Score(Candidate{Entry: lookup(t, cat, "rds"), Fallback: true}, req, DefaultWeights)
	assert.Equal(t, 0.0, fallback.Scores.UseCase)
	assert.True(t, fallback.Fallback)
}

func TestScore_CostFloor(t *testing.T) {
	cat := testCatalog(t)
	s := Score(Candidate{Entry: lookup(t, cat, "cloudwatch")}, staticWebsite(1), DefaultWeights)
	assert.Equal(t, 0.0, s.Scores.Cost)
}

func TestScore_CostMatchMonotonicInBudget(t *testing.T) {
	cat := testCatalog(t)
	budgets := []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 1000}

	for _, e := range cat.Entries() {
		prev := -1.0
		for _, b := range budgets {
			s := Score(Candidate{Entry: e}, fullStackHighTraffic(b), DefaultWeights)
			assert.GreaterOrEqual(t, s.Scores.Cost, prev, "%s at budget %v", e.ID, b)
			assert.GreaterOrEqual(t, s.Scores.Cost, 0.0)
			assert.LessOrEqual(t, s.Scores.Cost, 1.0)
			prev = s.Scores.Cost
		}
	}
}

func TestScalabilityMatch(t *testing.T) {
	tests := []struct {
		entry, traffic catalog.Tier
		want           float64
	}{
		{catalog.TierHigh, catalog.TierLow, 1.0},
		{catalog.TierHigh, catalog.TierHigh, 1.0},
		{catalog.TierMedium, catalog.TierHigh, 0.5},
		{catalog.TierLow, catalog.TierMedium, 0.5},
		{catalog.TierLow, catalog.TierHigh, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalabilityMatch(tt.entry, tt.traffic), "%s vs %s", tt.entry, tt.traffic)
	}
}

func TestOperationalMatch(t *testing.T) {
	tests := []struct {
		entry, preferred catalog.Tier
		want             float64
	}{
		{catalog.TierLow, catalog.TierLow, 1.0},
		{catalog.TierMedium, catalog.TierLow, 0.5},
		{catalog.TierLow, catalog.TierMedium, 0.5},
		{catalog.TierHigh, catalog.TierLow, 0},
		{catalog.TierLow, catalog.TierHigh, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, operationalMatch(tt.entry, tt.preferred), "%s vs %s", tt.entry, tt.preferred)
	}
}

func TestBetter(t *testing.T) {
	a := ScoredService{Entry: catalog.Entry{ID: "a", Priority: 2}, Composite: 0.8, Cost: decimal.NewFromInt(10)}
	b := ScoredService{Entry: catalog.Entry{ID: "b", Priority: 1}, Composite: 0.7, Cost: decimal.NewFromInt(1)}
	assert.True(t, Better(a, b), "higher composite wins")
	assert.False(t, Better(b, a))

	b.Composite = 0.8
	assert.True(t, Better(b, a), "lower cost wins a composite tie")

	b.Cost = decimal.NewFromInt(10)
	assert.True(t, Better(b, a), "catalog priority wins a cost tie")
	assert.False(t, Better(a, b))
}
