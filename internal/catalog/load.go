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

package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EmbeddedSource names the catalog compiled into the binary
const EmbeddedSource = "embedded:data/catalog.yaml"

//go:embed data/catalog.yaml
var embeddedCatalog []byte

// ErrInvalidCatalog is wrapped by every catalog validation failure
var ErrInvalidCatalog = errors.New("invalid catalog")

// ConfigurationError reports a catalog that could not be loaded. It is fatal:
// a service must not accept requests without a catalog.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("failed to load catalog from %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type document struct {
	Version          string            `yaml:"version"`
	Region           string            `yaml:"region"`
	ApplicationTypes []ApplicationType `yaml:"applicationTypes"`
	Services         []Entry           `yaml:"services"`
}

// Default loads the catalog embedded in the binary
func Default() (*Catalog, error) {
	return Parse(EmbeddedSource, embeddedCatalog)
}

// Load returns the catalog at path, or the embedded catalog when path is empty
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and validates a catalog YAML file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator configuration
	if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes and validates catalog YAML. source is only used in errors.
func Parse(source string, data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigurationError{Source: source, Err: fmt.Errorf("%w: %v", ErrInvalidCatalog, err)}
	}

	c, err := build(doc)
	if err != nil {
		return nil, &ConfigurationError{Source: source, Err: err}
	}
	return c, nil
}

func build(doc document) (*Catalog, error) {
	if len(doc.ApplicationTypes) == 0 {
		return nil, fmt.Errorf("%w: no application types defined", ErrInvalidCatalog)
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("%w: no services defined", ErrInvalidCatalog)
	}

	c := &Catalog{
		version: doc.Version,
		region:  doc.Region,
		byID:    make(map[string]int, len(doc.Services)),
		appByID: make(map[string]int, len(doc.ApplicationTypes)),
	}

	for i, at := range doc.ApplicationTypes {
		if at.ID == "" {
			return nil, fmt.Errorf("%w: application type %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.appByID[at.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate application type %q", ErrInvalidCatalog, at.ID)
		}
		for _, cat := range at.RequiredCategories {
			if !cat.Valid() {
				return nil, fmt.Errorf("%w: application type %q requires unknown category %q", ErrInvalidCatalog, at.ID, cat)
			}
		}
		c.appByID[at.ID] = i
		c.appTypes = append(c.appTypes, at)
	}

	for i, e := range doc.Services {
		if err := c.validateEntry(e); err != nil {
			return nil, fmt.Errorf("%w: service %d (%s): %v", ErrInvalidCatalog, i, e.ID, err)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate service id %q", ErrInvalidCatalog, e.ID)
		}
		e.Priority = i
		c.byID[e.ID] = i
		c.entries = append(c.entries, e)
	}

	return c, nil
}

func (c *Catalog) validateEntry(e Entry) error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	if e.Name == "" {
		return errors.New("name is required")
	}
	if !e.Category.Valid() {
		return fmt.Errorf("unknown category %q", e.Category)
	}
	if !e.Scalability.Valid() {
		return errors.New("scalability is required")
	}
	if !e.OperationalEffort.Valid() {
		return errors.New("operationalEffort is required")
	}
	for _, uc := range e.UseCases {
		if _, ok := c.appByID[uc]; !ok {
			return fmt.Errorf("unknown use case %q", uc)
		}
	}
	for _, t := range e.Traits {
		if !knownTraits[t] {
			return fmt.Errorf("unknown trait %q", t)
		}
	}
	return e.Cost.validate()
}
