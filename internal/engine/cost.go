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

var (
	trafficUnit     = decimal.NewFromInt(10_000)
	millionRequests = decimal.NewFromInt(1_000_000)
)

// EstimateCost returns the entry's standalone monthly cost for the request:
//
//	base + trafficFee[tier] + perTrafficUnit*(requests/10k) + perMillionRequests*(requests/1M) + perGB*storageGB
//
// The result is exact; rounding happens only when it is presented.
func EstimateCost(entry catalog.Entry, req Requirements) decimal.Decimal {
	m := entry.Cost
	requests := decimal.NewFromInt(RequestVolume(req.Traffic))

	cost := decimal.NewFromFloat(m.BaseMonthly)
	cost = cost.Add(decimal.NewFromFloat(m.TrafficFees.For(req.Traffic)))
	cost = cost.Add(decimal.NewFromFloat(m.PerTrafficUnit).Mul(requests).Div(trafficUnit))
	cost = cost.Add(decimal.NewFromFloat(m.PerMillionRequests).Mul(requests).Div(millionRequests))
	cost = cost.Add(decimal.NewFromFloat(m.PerGB).Mul(decimal.NewFromInt(int64(req.StorageGB))))
	return cost
}

// TotalCost sums the estimated costs of the given services
func TotalCost(services []ScoredService) decimal.Decimal {
	total := decimal.Zero
	for _, s := range services {
		total = total.Add(s.Cost)
	}
	return total
}
