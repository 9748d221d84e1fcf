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

// Package engine turns a set of application requirements into a cost-bounded
// AWS architecture. Every stage is a pure function over the immutable catalog
// and the request, so identical inputs always produce identical output.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/your-org/arch-planner/internal/catalog"
)

// Supported application types
const (
	AppStaticWebsite = "static-website"
	AppBackendAPI    = "backend-api"
	AppFullStack     = "full-stack"
	AppFileStorage   = "file-storage"
	AppEventDriven   = "event-driven"
)

// ApplicationTypes lists the application types a request may name
var ApplicationTypes = []string{AppStaticWebsite, AppBackendAPI, AppFullStack, AppFileStorage, AppEventDriven}

// Monthly request volume assumed for each traffic tier
const (
	LowTrafficRequests    = 10_000
	MediumTrafficRequests = 50_000
	HighTrafficRequests   = 200_000
)

// ValidationError reports a missing, out-of-range or unrecognized request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field '%s': %s", e.Field, e.Message)
}

// Requirements is a validated recommendation request
type Requirements struct {
	ApplicationType   string
	Traffic           catalog.Tier
	StorageGB         int
	DatabaseNeeded    bool
	OperationalEffort catalog.Tier
	MonthlyBudget     float64
}

// RequirementsInput is the raw request as received. Nil fields were absent.
type RequirementsInput struct {
	ApplicationType   *string  `json:"applicationType"`
	Traffic           *string  `json:"traffic"`
	StorageGB         *int     `json:"storageGB"`
	DatabaseNeeded    *bool    `json:"databaseNeeded"`
	OperationalEffort *string  `json:"operationalEffort"`
	MonthlyBudget     *float64 `json:"monthlyBudget"`
}

// ParseRequirements validates raw input. Enumerations are matched
// case-insensitively; storageGB defaults to 0 and databaseNeeded to false.
func ParseRequirements(in RequirementsInput) (Requirements, error) {
	var req Requirements

	if in.ApplicationType == nil || strings.TrimSpace(*in.ApplicationType) == "" {
		return Requirements{}, &ValidationError{Field: "applicationType", Message: "is required"}
	}
	appType := strings.ToLower(strings.TrimSpace(*in.ApplicationType))
	if !isApplicationType(appType) {
		return Requirements{}, &ValidationError{
			Field:   "applicationType",
			Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(ApplicationTypes, ", "), *in.ApplicationType),
		}
	}
	req.ApplicationType = appType

	traffic, err := parseTierField("traffic", in.Traffic)
	if err != nil {
		return Requirements{}, err
	}
	req.Traffic = traffic

	if in.StorageGB != nil {
		if *in.StorageGB < 0 {
			return Requirements{}, &ValidationError{Field: "storageGB", Message: "must be greater than or equal to 0"}
		}
		req.StorageGB = *in.StorageGB
	}

	if in.DatabaseNeeded != nil {
		req.DatabaseNeeded = *in.DatabaseNeeded
	}

	effort, err := parseTierField("operationalEffort", in.OperationalEffort)
	if err != nil {
		return Requirements{}, err
	}
	req.OperationalEffort = effort

	if in.MonthlyBudget == nil {
		return Requirements{}, &ValidationError{Field: "monthlyBudget", Message: "is required"}
	}
	budget := *in.MonthlyBudget
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return Requirements{}, &ValidationError{Field: "monthlyBudget", Message: "must be greater than 0"}
	}
	req.MonthlyBudget = budget

	return req, nil
}

// Validate checks an already constructed Requirements value
func (r Requirements) Validate() error {
	appType := r.ApplicationType
	traffic := r.Traffic.String()
	effort := r.OperationalEffort.String()
	storage := r.StorageGB
	database := r.DatabaseNeeded
	budget := r.MonthlyBudget
	_, err := ParseRequirements(RequirementsInput{
		ApplicationType:   &appType,
		Traffic:           &traffic,
		StorageGB:         &storage,
		DatabaseNeeded:    &database,
		OperationalEffort: &effort,
		MonthlyBudget:     &budget,
	})
	return err
}

// RequestVolume returns the monthly request count assumed for a traffic tier
func RequestVolume(traffic catalog.Tier) int64 {
	switch traffic {
	case catalog.TierMedium:
		return MediumTrafficRequests
	case catalog.TierHigh:
		return HighTrafficRequests
	default:
		return LowTrafficRequests
	}
}

func parseTierField(field string, value *string) (catalog.Tier, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return 0, &ValidationError{Field: field, Message: "is required"}
	}
	tier, err := catalog.ParseTier(*value)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: fmt.Sprintf("must be one of low, medium, high, got %q", *value)}
	}
	return tier, nil
}

func isApplicationType(s string) bool {
	for _, t := range ApplicationTypes {
		if t == s {
			return true
		}
	}
	return false
}
