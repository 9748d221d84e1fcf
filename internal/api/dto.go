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

package api

import (
	"github.com/shopspring/decimal"

	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/engine"
	"github.com/your-org/arch-planner/internal/feedback"
)

// RecommendRequest is the body of POST /api/recommend and POST /api/diagram
type RecommendRequest struct {
	ApplicationType   *string  `json:"applicationType" binding:"required"`
	Traffic           *string  `json:"traffic" binding:"required"`
	StorageGB         *int     `json:"storageGB" binding:"omitempty,min=0"`
	DatabaseNeeded    *bool    `json:"databaseNeeded"`
	OperationalEffort *string  `json:"operationalEffort" binding:"required"`
	MonthlyBudget     *float64 `json:"monthlyBudget" binding:"required,gt=0"`
}

func (r RecommendRequest) input() engine.RequirementsInput {
	return engine.RequirementsInput{
		ApplicationType:   r.ApplicationType,
		Traffic:           r.Traffic,
		StorageGB:         r.StorageGB,
		DatabaseNeeded:    r.DatabaseNeeded,
		OperationalEffort: r.OperationalEffort,
		MonthlyBudget:     r.MonthlyBudget,
	}
}

// FeedbackRequest is the body of POST /api/feedback
type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"required"`
}

// DecideRequest is the body of POST /api/decide
type DecideRequest struct {
	UserFacing *bool `json:"userFacing" binding:"required"`
	Instant    *bool `json:"instant" binding:"required"`
	StoresData *bool `json:"storesData" binding:"required"`
}

// ServiceResponse is one selected service
type ServiceResponse struct {
	ID            string           `json:"id"`
	Service       string           `json:"service"`
	Category      catalog.Category `json:"category"`
	Description   string           `json:"description"`
	Reason        string           `json:"reason"`
	EstimatedCost float64          `json:"estimatedCost"`
	Fallback      bool             `json:"fallback,omitempty"`
	BudgetFit     bool             `json:"budgetFit,omitempty"`
}

// AlternativeResponse is one alternative architecture. Services holds
// display names only.
type AlternativeResponse struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Services          []string           `json:"services"`
	TotalCost         float64            `json:"totalCost"`
	TrimmedCategories []catalog.Category `json:"trimmedCategories,omitempty"`
}

// RecommendationResponse is the body returned by POST /api/recommend. The
// primary architecture is flattened into architecture and totalCost.
type RecommendationResponse struct {
	Architecture      []ServiceResponse     `json:"architecture"`
	TotalCost         float64               `json:"totalCost"`
	Budget            float64               `json:"budget"`
	WithinBudget      bool                  `json:"withinBudget"`
	Message           string                `json:"message"`
	OptionalUpgrades  []string              `json:"optionalUpgrades"`
	Alternatives      []AlternativeResponse `json:"alternatives"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	TrimmedCategories []catalog.Category    `json:"trimmedCategories,omitempty"`
	RejectedOptions   []engine.Statement    `json:"rejectedOptions"`
	TradeOffs         []engine.Statement    `json:"tradeOffs"`
	ConstraintImpacts []engine.Statement    `json:"constraintImpacts"`
	OmittedCategories []engine.Statement    `json:"omittedCategories"`
	Assumptions       []engine.Statement    `json:"assumptions"`
}

// DecideResponse is the body returned by POST /api/decide
type DecideResponse struct {
	ApplicationType string `json:"applicationType"`
	Label           string `json:"label"`
	Reason          string `json:"reason"`
}

// FeedbackResponse acknowledges stored feedback
type FeedbackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// FeedbackListResponse is the body returned by GET /api/feedback
type FeedbackListResponse struct {
	Feedback []feedback.Feedback `json:"feedback"`
	Count    int                 `json:"count"`
}

// FeedbackStatsResponse is the body returned by GET /api/feedback/stats.
// Every known type is present, zero when unused.
type FeedbackStatsResponse struct {
	Total       int                   `json:"total"`
	ByType      map[feedback.Type]int `json:"byType"`
	StorageType string                `json:"storageType"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func newServiceResponses(a engine.Architecture) []ServiceResponse {
	services := make([]ServiceResponse, len(a.Selections))
	for i, s := range a.Selections {
		services[i] = ServiceResponse{
			ID:            s.Entry.ID,
			Service:       s.Entry.Name,
			Category:      s.Entry.Category,
			Description:   s.Entry.Description,
			Reason:        s.Reason,
			EstimatedCost: money(s.Cost),
			Fallback:      s.Fallback,
			BudgetFit:     s.BudgetFit,
		}
	}
	return services
}

// NewRecommendationResponse converts an engine recommendation to its wire form
func NewRecommendationResponse(rec engine.Recommendation) RecommendationResponse {
	alternatives := make([]AlternativeResponse, len(rec.Alternatives))
	for i, alt := range rec.Alternatives {
		alternatives[i] = AlternativeResponse{
			Name:              alt.Name,
			Description:       alt.Description,
			Services:          nonNil(alt.ServiceNames()),
			TotalCost:         money(alt.TotalCost),
			TrimmedCategories: alt.Trimmed,
		}
	}

	return RecommendationResponse{
		Architecture:      newServiceResponses(rec.Primary),
		TotalCost:         money(rec.Primary.TotalCost),
		Budget:            rec.Budget,
		WithinBudget:      rec.WithinBudget,
		Message:           rec.Message,
		OptionalUpgrades:  nonNil(rec.Primary.OptionalUpgrades),
		Alternatives:      alternatives,
		Name:              rec.Primary.Name,
		Description:       rec.Primary.Description,
		TrimmedCategories: rec.Primary.Trimmed,
		RejectedOptions:   nonNil(rec.Narrative.RejectedOptions),
		TradeOffs:         nonNil(rec.Narrative.TradeOffs),
		ConstraintImpacts: nonNil(rec.Narrative.ConstraintImpacts),
		OmittedCategories: nonNil(rec.Narrative.OmittedCategories),
		Assumptions:       nonNil(rec.Narrative.Assumptions),
	}
}

// nonNil keeps empty lists as [] rather than null on the wire
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
