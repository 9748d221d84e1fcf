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
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/arch-planner/internal/catalog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testCatalog(t), DefaultOptions(), zaptest.NewLogger(t))
}

func alternativeNames(alts []Architecture) []string {
	out := make([]string, len(alts))
	for i, a := range alts {
		out[i] = a.Name
	}
	return out
}

func TestNew_NormalizesOptions(t *testing.T) {
	e := New(testCatalog(t), Options{MaxAlternatives: 9, MaxUpgrades: -1, TightBudgetThreshold: 0}, nil)
	assert.Equal(t, DefaultOptions(), e.Options())
	assert.NotNil(t, e.Catalog())
}

func TestRecommend_StaticWebsiteWithinBudget(t *testing.T) {
	rec, err := newTestEngine(t).Recommend(staticWebsite(20))
	require.NoError(t, err)

	assert.Equal(t, PrimaryName, rec.Primary.Name)
	assert.Equal(t, []string{"s3", "cloudfront", "cloudwatch", "iam"}, architectureIDs(rec.Primary))
	assertDecimal(t, "4.664", rec.Primary.TotalCost)
	assert.True(t, rec.WithinBudget)
	assert.Equal(t, 20.0, rec.Budget)
	assert.Contains(t, rec.Message, "fits within your $20.00 budget")

	for _, s := range rec.Primary.Selections {
		assert.NotEqual(t, catalog.Database, s.Entry.Category)
		assert.False(t, s.Entry.HasTrait(catalog.TraitDedicatedInstance), "%s needs a dedicated instance", s.Entry.ID)
		assert.NotEmpty(t, s.Reason)
	}

	assert.Len(t, rec.Primary.OptionalUpgrades, 2)
	require.Len(t, rec.Alternatives, 1)
	assert.Equal(t, "Essentials-Only", rec.Alternatives[0].Name)
	assert.Equal(t, []string{"s3", "cloudfront", "iam"}, architectureIDs(rec.Alternatives[0]))
	assertDecimal(t, "1.664", rec.Alternatives[0].TotalCost)
}

func TestRecommend_StaticWebsiteOverBudget(t *testing.T) {
	rec, err := newTestEngine(t).Recommend(staticWebsite(1))
	require.NoError(t, err)

	assert.False(t, rec.WithinBudget)
	assert.Equal(t, []string{"s3", "cloudfront", "iam"}, architectureIDs(rec.Primary))
	assertDecimal(t, "1.664", rec.Primary.TotalCost)

	over := rec.Primary.TotalCost.Sub(decimal.NewFromInt(1)).StringFixed(2)
	assert.Equal(t, "0.66", over)
	assert.Contains(t, rec.Message, "exceeds budget by $"+over)

	assert.Empty(t, rec.Primary.OptionalUpgrades)
	assert.Equal(t, []string{"Cost-Optimized"}, alternativeNames(rec.Alternatives))
}

func TestRecommend_FullStackHighTraffic(t *testing.T) {
	rec, err := newTestEngine(t).Recommend(fullStackHighTraffic(500))
	require.NoError(t, err)

	assert.Equal(t, []string{"fargate", "s3", "dynamodb", "alb", "xray", "iam"}, architectureIDs(rec.Primary))
	assertDecimal(t, "135.06", rec.Primary.TotalCost)
	assert.True(t, rec.WithinBudget)

	counts := make(map[catalog.Category]int)
	for _, s := range rec.Primary.Selections {
		counts[s.Entry.Category]++
	}
	assert.Equal(t, 1, counts[catalog.Compute])
	assert.Equal(t, 1, counts[catalog.Database])

	require.NotEmpty(t, rec.Alternatives)
	assert.Equal(t, []string{"Cost-Optimized", "Performance-Optimized"}, alternativeNames(rec.Alternatives))
	assert.Equal(t, "lambda", rec.Alternatives[0].Selections[0].Entry.ID)
	assert.Equal(t, "aurora", rec.Alternatives[1].Selections[2].Entry.ID)
	for _, alt := range rec.Alternatives {
		assert.NotEqual(t, rec.Primary.Key(), alt.Key())
		assert.NotEmpty(t, alt.Description)
	}

	assert.Equal(t, []string{
		"Amazon EBS Provisioned IOPS (+$19.00/month): io2 volumes with guaranteed IOPS for latency-sensitive workloads",
		"Amazon ElastiCache (+$50.00/month): In-memory cache in front of the primary database",
		"AWS WAF (+$5.12/month): Web application firewall against common exploits",
	}, rec.Primary.OptionalUpgrades)
}

func TestRecommend_BudgetFitReason(t *testing.T) {
	req := Requirements{
		ApplicationType:   AppStaticWebsite,
		Traffic:           catalog.TierLow,
		StorageGB:         500,
		DatabaseNeeded:    true,
		OperationalEffort: catalog.TierLow,
		MonthlyBudget:     75,
	}
	rec, err := newTestEngine(t).Recommend(req)
	require.NoError(t, err)

	assert.False(t, rec.WithinBudget)
	assert.Contains(t, rec.Message, "exceeds budget by $9.51")

	rds := rec.Primary.Selections[1]
	require.Equal(t, "rds", rds.Entry.ID)
	assert.Contains(t, rds.Reason, "closest available option")
	assert.Contains(t, rds.Reason, "lowest-cost database option")
}

func TestRecommend_InvalidRequirements(t *testing.T) {
	e := newTestEngine(t)

	req := staticWebsite(0)
	_, err := e.Recommend(req)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "monthlyBudget", verr.Field)

	req = staticWebsite(20)
	req.Traffic = 0
	_, err = e.Recommend(req)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "traffic", verr.Field)
}

func TestRecommend_ApplicationTypeMissingFromCatalog(t *testing.T) {
	cat, err := catalog.Parse("inline", []byte(`
applicationTypes:
  - id: backend-api
    label: Backend API
    requiredCategories: [compute]
services:
  - id: fn
    name: Functions
    category: compute
    scalability: high
    operationalEffort: low
`))
	require.NoError(t, err)

	_, err = New(cat, DefaultOptions(), nil).Recommend(staticWebsite(20))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "applicationType", verr.Field)
}

func TestRecommend_AlternativeLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxAlternatives = 1
	e := New(testCatalog(t), opts, nil)

	rec, err := e.Recommend(fullStackHighTraffic(500))
	require.NoError(t, err)
	assert.Equal(t, []string{"Cost-Optimized"}, alternativeNames(rec.Alternatives))
}

func TestRecommend_PrimaryFitsMonotonically(t *testing.T) {
	e := newTestEngine(t)

	requests := map[string]Requirements{
		"backend api, large storage": {
			ApplicationType:   AppBackendAPI,
			Traffic:           catalog.TierMedium,
			StorageGB:         500,
			OperationalEffort: catalog.TierHigh,
		},
		"full-stack high traffic": fullStackHighTraffic(0),
		"static website":          staticWebsite(0),
	}

	for name, base := range requests {
		t.Run(name, func(t *testing.T) {
			fitted := false
			for budget := 1.0; budget <= 300; budget++ {
				req := base
				req.MonthlyBudget = budget

				rec, err := e.Recommend(req)
				require.NoError(t, err)

				if fitted {
					assert.True(t, rec.WithinBudget, "withinBudget flipped to false at $%v", budget)
				}
				fitted = fitted || rec.WithinBudget

				raw := Select(ScoreAll(Filter(e.Catalog(), req), req, DefaultWeights))
				if raw.TotalCost.LessThanOrEqual(decimal.NewFromFloat(budget)) {
					assert.Equal(t, raw.Key(), rec.Primary.Key(), "fitting winners must be kept at $%v", budget)
				} else {
					assert.False(t, rec.Primary.TotalCost.GreaterThan(raw.TotalCost), "fitting raised the cost at $%v", budget)
				}
			}
			assert.True(t, fitted, "never fit within $300")
		})
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	req := fullStackHighTraffic(500)

	first, err := e.Recommend(req)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := e.Recommend(req)
			if err != nil {
				t.Errorf("recommend failed: %v", err)
				return
			}
			results[i], _ = json.Marshal(rec)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, string(want), string(got), "run %d differs", i)
	}
}

var propertyBudgets = []float64{1, 5, 20, 50, 100, 250, 500, 1000, 5000}

func forEachRequirements(fn func(name string, budgets []Requirements)) {
	for _, appType := range ApplicationTypes {
		for _, traffic := range catalog.Tiers {
			for _, database := range []bool{false, true} {
				for _, effort := range catalog.Tiers {
					for _, storage := range []int{0, 50, 500} {
						var series []Requirements
						for _, b := range propertyBudgets {
							series = append(series, Requirements{
								ApplicationType:   appType,
								Traffic:           traffic,
								StorageGB:         storage,
								DatabaseNeeded:    database,
								OperationalEffort: effort,
								MonthlyBudget:     b,
							})
						}
						name := fmt.Sprintf("%s/%s/db=%t/ops=%s/%dGB", appType, traffic, database, effort, storage)
						fn(name, series)
					}
				}
			}
		}
	}
}

func TestRecommend_Properties(t *testing.T) {
	e := newTestEngine(t)

	forEachRequirements(func(name string, series []Requirements) {
		previouslyWithin := false
		for _, req := range series {
			rec, err := e.Recommend(req)
			require.NoError(t, err, name)

			all := append([]Architecture{rec.Primary}, rec.Alternatives...)
			for _, arch := range all {
				// category exclusivity and no duplicates
				seenCategory := make(map[catalog.Category]bool)
				seenID := make(map[string]bool)
				for _, s := range arch.Selections {
					assert.False(t, seenCategory[s.Entry.Category], "%s: duplicate category %s in %s", name, s.Entry.Category, arch.Name)
					assert.False(t, seenID[s.Entry.ID], "%s: duplicate service %s", name, s.Entry.ID)
					seenCategory[s.Entry.Category] = true
					seenID[s.Entry.ID] = true

					assert.False(t, s.Entry.UpgradeOnly, "%s: upgrade-only %s selected", name, s.Entry.ID)
					if !req.DatabaseNeeded {
						assert.NotEqual(t, catalog.Database, s.Entry.Category, "%s: database selected in %s", name, arch.Name)
					}
				}

				// total is the exact sum
				assert.True(t, TotalCost(arch.Services()).Equal(arch.TotalCost), "%s: total mismatch in %s", name, arch.Name)
			}

			// budget consistency
			assert.Equal(t, rec.Primary.TotalCost.LessThanOrEqual(decimal.NewFromFloat(req.MonthlyBudget)), rec.WithinBudget, name)

			// alternative distinctness
			assert.LessOrEqual(t, len(rec.Alternatives), MaxAlternatives)
			keys := map[string]bool{rec.Primary.Key(): true}
			for _, alt := range rec.Alternatives {
				assert.False(t, keys[alt.Key()], "%s: alternative %s duplicates an earlier architecture", name, alt.Name)
				keys[alt.Key()] = true
			}

			// raising the budget never turns a fitting architecture into one that does not fit
			if previouslyWithin {
				assert.True(t, rec.WithinBudget, "%s: withinBudget flipped at budget %v", name, req.MonthlyBudget)
			}
			previouslyWithin = rec.WithinBudget
		}
	})
}
