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

// Candidate is a catalog entry that survived filtering
type Candidate struct {
	Entry catalog.Entry
	// Fallback marks an entry admitted only because its required category
	// would otherwise be empty. It does not list the application type.
	Fallback bool
}

// Filter returns the entries eligible for selection, grouped in canonical
// category order and by catalog priority within a category.
//
// Rules, in order:
//   - upgrade-only entries never take part in selection
//   - database entries are dropped when no database is needed
//   - entries whose use-case set excludes the application type are dropped;
//     use-case agnostic entries pass
//   - entries below the scalability tier the traffic requires are dropped,
//     but only when a same-category entry meets that tier
//
// A required category left empty by the use-case rule is refilled with its
// hard-rule survivors, flagged as fallbacks.
func Filter(cat *catalog.Catalog, req Requirements) []Candidate {
	return filter(cat, req, false)
}

func filter(cat *catalog.Catalog, req Requirements, requiredOnly bool) []Candidate {
	required := cat.RequiredCategories(req.ApplicationType, req.DatabaseNeeded)

	var out []Candidate
	for _, category := range catalog.Categories {
		if requiredOnly && !required[category] {
			continue
		}

		var survivors []catalog.Entry
		for _, e := range cat.ByCategory(category) {
			if !e.UpgradeOnly && passesHardRules(e, req) {
				survivors = append(survivors, e)
			}
		}

		var candidates []Candidate
		for _, e := range survivors {
			if e.Supports(req.ApplicationType) {
				candidates = append(candidates, Candidate{Entry: e})
			}
		}
		if len(candidates) == 0 && required[category] {
			for _, e := range survivors {
				candidates = append(candidates, Candidate{Entry: e, Fallback: true})
			}
		}

		out = append(out, applyScalability(candidates, req.Traffic)...)
	}
	return out
}

// passesHardRules reports whether an entry may appear in any architecture for
// the request. Hard rules are never relaxed by the fallback.
func passesHardRules(e catalog.Entry, req Requirements) bool {
	if e.Category == catalog.Database && !req.DatabaseNeeded {
		return false
	}
	return true
}

func applyScalability(candidates []Candidate, traffic catalog.Tier) []Candidate {
	sufficient := 0
	for _, c := range candidates {
		if c.Entry.Scalability >= traffic {
			sufficient++
		}
	}
	if sufficient == 0 || sufficient == len(candidates) {
		return candidates
	}

	out := make([]Candidate, 0, sufficient)
	for _, c := range candidates {
		if c.Entry.Scalability >= traffic {
			out = append(out, c)
		}
	}
	return out
}
