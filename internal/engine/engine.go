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

	"go.uber.org/zap"

	"github.com/your-org/arch-planner/internal/catalog"
)

// PrimaryName is the name given to the primary architecture
const PrimaryName = "Recommended"

// Options tune the engine's output limits
type Options struct {
	MaxAlternatives      int
	MaxUpgrades          int
	TightBudgetThreshold float64
}

// DefaultOptions returns the standard limits
func DefaultOptions() Options {
	return Options{
		MaxAlternatives:      MaxAlternatives,
		MaxUpgrades:          DefaultMaxUpgrades,
		TightBudgetThreshold: DefaultTightBudgetThreshold,
	}
}

// Recommendation is the complete answer to one request
type Recommendation struct {
	Primary      Architecture
	Budget       float64
	WithinBudget bool
	Message      string
	Alternatives []Architecture
	Narrative    Narrative
}

// Engine runs the recommendation pipeline against a shared catalog. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *zap.Logger
}

// New creates an engine. Out-of-range options fall back to the defaults.
func New(cat *catalog.Catalog, opts Options, logger *zap.Logger) *Engine {
	defaults := DefaultOptions()
	if opts.MaxAlternatives < 0 || opts.MaxAlternatives > MaxAlternatives {
		opts.MaxAlternatives = defaults.MaxAlternatives
	}
	if opts.MaxUpgrades < 0 {
		opts.MaxUpgrades = defaults.MaxUpgrades
	}
	if opts.TightBudgetThreshold <= 0 {
		opts.TightBudgetThreshold = defaults.TightBudgetThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: cat, opts: opts, logger: logger}
}

// Catalog returns the catalog the engine selects from
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Options returns the effective engine options
func (e *Engine) Options() Options {
	return e.opts
}

// Recommend runs Filter, Scorer, Selector, Cost Estimator, Budget Validator,
// Alternative Generator and Explainer for one request. An invalid request
// yields a *ValidationError and no recommendation.
//
// The primary is the Selector's per-category winners only when they fit the
// budget. Otherwise FitBudget swaps required layers for cheaper ones and drops
// optional layers, so the primary can differ from the Selector's output. The
// Cost Match sub-score moves with the budget, which means the raw winners at a
// higher budget can cost more than those at a lower one; fitting keeps
// withinBudget from turning false as the budget rises.
func (e *Engine) Recommend(req Requirements) (Recommendation, error) {
	if err := req.Validate(); err != nil {
		return Recommendation{}, err
	}
	if _, ok := e.catalog.ApplicationType(req.ApplicationType); !ok {
		return Recommendation{}, &ValidationError{
			Field:   "applicationType",
			Message: fmt.Sprintf("%q is not defined in the service catalog", req.ApplicationType),
		}
	}

	candidates := Filter(e.catalog, req)
	scored := ScoreAll(candidates, req, DefaultWeights)
	required := e.catalog.RequiredCategories(req.ApplicationType, req.DatabaseNeeded)
	primary := FitBudget(Select(scored), scored, required, req.MonthlyBudget)
	primary.Name = PrimaryName
	primary.Description = fmt.Sprintf("Balanced architecture for a %s application with %s traffic.",
		applicationLabel(req.ApplicationType), req.Traffic)
	annotate(&primary, req)

	withinBudget, message := ValidateBudget(primary, req.MonthlyBudget)
	primary.OptionalUpgrades = OptionalUpgrades(e.catalog, req, primary, DefaultWeights, e.opts.MaxUpgrades)

	alternatives := GenerateAlternatives(e.catalog, req, primary)
	if len(alternatives) > e.opts.MaxAlternatives {
		alternatives = alternatives[:e.opts.MaxAlternatives]
	}

	rec := Recommendation{
		Primary:      primary,
		Budget:       req.MonthlyBudget,
		WithinBudget: withinBudget,
		Message:      message,
		Alternatives: alternatives,
		Narrative:    Narrate(primary, req, e.opts.TightBudgetThreshold),
	}

	e.logger.Debug("Recommendation computed",
		zap.String("application_type", req.ApplicationType),
		zap.String("traffic", req.Traffic.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("services", len(primary.Selections)),
		zap.Int("trimmed", len(primary.Trimmed)),
		zap.String("total_cost", primary.TotalCost.StringFixed(2)),
		zap.Bool("within_budget", withinBudget),
		zap.Int("alternatives", len(alternatives)))

	return rec, nil
}
