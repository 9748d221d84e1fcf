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

// Package catalog holds the fixed table of AWS service offerings the planner
// selects from. A Catalog is loaded once at startup and is read-only afterwards,
// so a single instance can be shared by any number of concurrent requests.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category groups services that fill the same architectural role.
type Category string

// Service categories in canonical presentation order
const (
	Compute    Category = "compute"
	Storage    Category = "storage"
	Database   Category = "database"
	Networking Category = "networking"
	Messaging  Category = "messaging"
	Monitoring Category = "monitoring"
	Security   Category = "security"
)

// Categories lists every category in canonical order. Architectures are
// always emitted in this order.
var Categories = []Category{Compute, Storage, Database, Networking, Messaging, Monitoring, Security}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Tier is an ordinal low/medium/high rating used for scalability, operational
// effort and traffic.
type Tier int

// Tier values. The zero value is invalid.
const (
	TierLow Tier = iota + 1
	TierMedium
	TierHigh
)

// Tiers lists the valid tiers in ascending order
var Tiers = []Tier{TierLow, TierMedium, TierHigh}

// ParseTier converts "low", "medium" or "high" (any case) to a Tier
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	default:
		return 0, fmt.Errorf("invalid tier %q: must be one of low, medium, high", s)
	}
}

// String returns the lowercase tier name
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the three defined tiers
func (t Tier) Valid() bool {
	return t >= TierLow && t <= TierHigh
}

// MarshalJSON encodes the tier as its name
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier name
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML decodes a tier name from the catalog file
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTier(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

// Trait marks a structural property of a service that the explanation layer
// and the diagram generator care about.
type Trait string

// Known traits
const (
	TraitServerless        Trait = "serverless"
	TraitLoadBalancer      Trait = "load-balancer"
	TraitDedicatedInstance Trait = "dedicated-instance"
	TraitStaticHosting     Trait = "static-hosting"
)

var knownTraits = map[Trait]bool{
	TraitServerless:        true,
	TraitLoadBalancer:      true,
	TraitDedicatedInstance: true,
	TraitStaticHosting:     true,
}

// TierFees is a fixed monthly fee per traffic tier
type TierFees struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// For returns the fee for the given traffic tier
func (f TierFees) For(t Tier) float64 {
	switch t {
	case TierMedium:
		return f.Medium
	case TierHigh:
		return f.High
	default:
		return f.Low
	}
}

// CostModel describes how a service's monthly cost is derived from the
// request's traffic tier and storage volume. It is data, not logic: the
// engine applies every model with the same formula.
type CostModel struct {
	BaseMonthly        float64  `yaml:"baseMonthly" json:"baseMonthly"`
	TrafficFees        TierFees `yaml:"trafficFees" json:"trafficFees"`
	PerTrafficUnit     float64  `yaml:"perTrafficUnit" json:"perTrafficUnit"`
	PerMillionRequests float64  `yaml:"perMillionRequests" json:"perMillionRequests"`
	PerGB              float64  `yaml:"perGB" json:"perGB"`
}

func (m CostModel) validate() error {
	rates := []struct {
		key   string
		value float64
	}{
		{"baseMonthly", m.BaseMonthly},
		{"trafficFees.low", m.TrafficFees.Low},
		{"trafficFees.medium", m.TrafficFees.Medium},
		{"trafficFees.high", m.TrafficFees.High},
		{"perTrafficUnit", m.PerTrafficUnit},
		{"perMillionRequests", m.PerMillionRequests},
		{"perGB", m.PerGB},
	}
	for _, r := range rates {
		if r.value < 0 {
			return fmt.Errorf("cost.%s must not be negative", r.key)
		}
	}
	return nil
}

// Entry is one selectable service offering
type Entry struct {
	ID                string    `yaml:"id" json:"id"`
	Name              string    `yaml:"name" json:"name"`
	Category          Category  `yaml:"category" json:"category"`
	Description       string    `yaml:"description" json:"description"`
	Scalability       Tier      `yaml:"scalability" json:"scalability"`
	OperationalEffort Tier      `yaml:"operationalEffort" json:"operationalEffort"`
	UseCases          []string  `yaml:"useCases" json:"useCases"`
	Traits            []Trait   `yaml:"traits" json:"traits,omitempty"`
	UpgradeOnly       bool      `yaml:"upgradeOnly" json:"upgradeOnly"`
	Cost              CostModel `yaml:"cost" json:"cost"`

	// Priority is the entry's position in the catalog file. Lower wins ties.
	Priority int `yaml:"-" json:"priority"`
}

// Agnostic reports whether the entry has no use-case constraint
func (e Entry) Agnostic() bool {
	return len(e.UseCases) == 0
}

// Supports reports whether the entry suits the application type, either by
// listing it explicitly or by being use-case agnostic.
func (e Entry) Supports(applicationType string) bool {
	return e.Agnostic() || e.Lists(applicationType)
}

// Lists reports whether the application type is explicitly in the entry's
// use-case set
func (e Entry) Lists(applicationType string) bool {
	for _, uc := range e.UseCases {
		if uc == applicationType {
			return true
		}
	}
	return false
}

// HasTrait reports whether the entry carries the given trait
func (e Entry) HasTrait(t Trait) bool {
	for _, trait := range e.Traits {
		if trait == t {
			return true
		}
	}
	return false
}

// ApplicationType is a supported kind of workload
type ApplicationType struct {
	ID                 string     `yaml:"id" json:"id"`
	Label              string     `yaml:"label" json:"label"`
	Description        string     `yaml:"description" json:"description"`
	RequiredCategories []Category `yaml:"requiredCategories" json:"requiredCategories"`
}

// Catalog is the immutable service table. All accessors return copies so
// callers can never mutate shared state.
type Catalog struct {
	version  string
	region   string
	entries  []Entry
	byID     map[string]int
	appTypes []ApplicationType
	appByID  map[string]int
}

// Version returns the catalog data version
func (c *Catalog) Version() string {
	return c.version
}

// Region returns the pricing reference region
func (c *Catalog) Region() string {
	return c.region
}

// Len returns the number of entries, upgrade-only entries included
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns every entry in priority order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// Lookup returns the entry with the given ID
func (c *Catalog) Lookup(id string) (Entry, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx].clone(), true
}

// ByCategory returns the entries of one category in priority order
func (c *Catalog) ByCategory(category Category) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Category == category {
			out = append(out, e.clone())
		}
	}
	return out
}

// ApplicationTypes returns the supported application types in catalog order
func (c *Catalog) ApplicationTypes() []ApplicationType {
	out := make([]ApplicationType, len(c.appTypes))
	for i, at := range c.appTypes {
		at.RequiredCategories = append([]Category(nil), at.RequiredCategories...)
		out[i] = at
	}
	return out
}

// ApplicationType looks up an application type by ID
func (c *Catalog) ApplicationType(id string) (ApplicationType, bool) {
	idx, ok := c.appByID[id]
	if !ok {
		return ApplicationType{}, false
	}
	at := c.appTypes[idx]
	at.RequiredCategories = append([]Category(nil), at.RequiredCategories...)
	return at, true
}

// RequiredCategories returns the categories an architecture for the given
// application type must cover. Database is required whenever one is needed.
func (c *Catalog) RequiredCategories(applicationType string, databaseNeeded bool) map[Category]bool {
	required := make(map[Category]bool)
	if at, ok := c.ApplicationType(applicationType); ok {
		for _, cat := range at.RequiredCategories {
			required[cat] = true
		}
	}
	if databaseNeeded {
		required[Database] = true
	}
	return required
}

func (e Entry) clone() Entry {
	e.UseCases = append([]string(nil), e.UseCases...)
	e.Traits = append([]Trait(nil), e.Traits...)
	return e
}
