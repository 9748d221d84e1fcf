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
	"github.com/your-org/arch-planner/internal/catalog"
)

// MaxAlternatives is the most alternatives ever returned
const MaxAlternatives = 3

// Profile is a named variation of the selection run
type Profile struct {
	Name        string
	Description string
	Weights     Weights
	// RequiredOnly restricts selection to the application type's required
	// categories.
	RequiredOnly bool
}

// Profiles are tried in order when generating alternatives
var Profiles = []Profile{
	{
		Name:        "Cost-Optimized",
		Description: "Minimizes monthly spend, accepting more operational work or less headroom where it saves money.",
		Weights:     Weights{Cost: 0.70, Scalability: 0.15, Operational: 0.10, UseCase: 0.05},
	},
	{
		Name:        "Performance-Optimized",
		Description: "Prioritizes scalability and capacity headroom over cost.",
		Weights:     Weights{Cost: 0.10, Scalability: 0.50, Operational: 0.25, UseCase: 0.15},
	},
	{
		Name:         "Essentials-Only",
		Description:  "Keeps only the layers this application type cannot run without.",
		Weights:      DefaultWeights,
		RequiredOnly: true,
	},
}

// GenerateAlternatives re-runs filtering, scoring and selection under each
// profile. Alternatives with the same service set as the primary or an
// earlier alternative are dropped.
func GenerateAlternatives(cat *catalog.Catalog, req Requirements, primary Architecture) []Architecture {
	seen := map[string]bool{primary.Key(): true}

	var out []Architecture
	for _, p := range Profiles {
		if len(out) == MaxAlternatives {
			break
		}

		arch := Select(ScoreAll(filter(cat, req, p.RequiredOnly), req, p.Weights))
		if len(arch.Selections) == 0 || seen[arch.Key()] {
			continue
		}
		seen[arch.Key()] = true

		arch.Name = p.Name
		arch.Description = p.Description
		annotate(&arch, req)
		out = append(out, arch)
	}
	return out
}
