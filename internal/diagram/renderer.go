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

// Package diagram draws recommended architectures as Mermaid flowcharts and
// links them to rendered images on a mermaid.ink compatible service.
package diagram

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/arch-planner/internal/engine"
)

const (
	// DefaultMermaidInkURL is the default mermaid.ink endpoint
	DefaultMermaidInkURL = "https://mermaid.ink"
	// MaxDiagramSize is the default maximum size of a Mermaid diagram in bytes
	MaxDiagramSize = 10000
)

// ErrInvalidDiagram is returned for diagram source that cannot be rendered
var ErrInvalidDiagram = errors.New("invalid diagram code")

// RendererConfig holds configuration for the diagram renderer
type RendererConfig struct {
	MermaidInkURL  string `mapstructure:"mermaid_ink_url"`
	MaxDiagramSize int    `mapstructure:"max_diagram_size"`
}

// DefaultRendererConfig returns default configuration for the diagram renderer
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		MermaidInkURL:  DefaultMermaidInkURL,
		MaxDiagramSize: MaxDiagramSize,
	}
}

// Diagram is the Mermaid source of an architecture plus links to its
// rendered images. When the source cannot be rendered the links are empty
// and Fallback carries a text representation.
type Diagram struct {
	Architecture string `json:"architecture"`
	Mermaid      string `json:"mermaid"`
	ImageURL     string `json:"imageUrl,omitempty"`
	SVGURL       string `json:"svgUrl,omitempty"`
	Fallback     string `json:"fallback,omitempty"`
}

// Renderer builds image links for Mermaid diagrams
type Renderer struct {
	config RendererConfig
	base   *url.URL
	logger *zap.Logger
}

// NewRenderer creates a new diagram renderer with the given configuration
func NewRenderer(config RendererConfig, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MermaidInkURL == "" {
		config.MermaidInkURL = DefaultMermaidInkURL
	}
	if config.MaxDiagramSize <= 0 {
		config.MaxDiagramSize = MaxDiagramSize
	}

	base, err := url.Parse(strings.TrimRight(config.MermaidInkURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid mermaid ink URL: %w", err)
	}
	if base.Scheme != "https" && base.Scheme != "http" {
		return nil, fmt.Errorf("invalid mermaid ink URL scheme: %s", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("mermaid ink URL has no host: %s", config.MermaidInkURL)
	}

	return &Renderer{config: config, base: base, logger: logger}, nil
}

// Render draws arch and links the rendered images
func (r *Renderer) Render(arch engine.Architecture) (Diagram, error) {
	code := Generate(arch)
	diagram := Diagram{Architecture: arch.Name, Mermaid: code}

	imageURL, err := r.ImageURL(code)
	if err != nil {
		return diagram, err
	}
	svgURL, err := r.SVGURL(code)
	if err != nil {
		return diagram, err
	}

	diagram.ImageURL = imageURL
	diagram.SVGURL = svgURL
	return diagram, nil
}

// RenderWithFallback is Render that degrades to a text representation
// instead of failing
func (r *Renderer) RenderWithFallback(arch engine.Architecture) Diagram {
	diagram, err := r.Render(arch)
	if err != nil {
		r.logger.Warn("Failed to render diagram, using fallback",
			zap.String("architecture", arch.Name),
			zap.Error(err))
		diagram.ImageURL = ""
		diagram.SVGURL = ""
		diagram.Fallback = createFallbackText(diagram.Mermaid)
	}
	return diagram
}

// ImageURL returns the PNG link for the diagram source
func (r *Renderer) ImageURL(code string) (string, error) {
	return r.link("img", code, url.Values{"type": {"png"}})
}

// SVGURL returns the SVG link for the diagram source
func (r *Renderer) SVGURL(code string) (string, error) {
	return r.link("svg", code, nil)
}

func (r *Renderer) link(kind, code string, query url.Values) (string, error) {
	if err := r.Validate(code); err != nil {
		return "", err
	}

	u := *r.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + kind + "/" + base64.URLEncoding.EncodeToString([]byte(code))
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// Validate checks that the diagram source is renderable
func (r *Renderer) Validate(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: diagram code cannot be empty", ErrInvalidDiagram)
	}

	if len(code) > r.config.MaxDiagramSize {
		return fmt.Errorf("%w: diagram code too large: %d bytes (max: %d)", ErrInvalidDiagram, len(code), r.config.MaxDiagramSize)
	}

	if !strings.HasPrefix(code, "graph TD") && !strings.HasPrefix(code, "graph LR") {
		return fmt.Errorf("%w: diagram code must contain valid Mermaid graph syntax", ErrInvalidDiagram)
	}

	if containsMaliciousContent(code) {
		return fmt.Errorf("%w: diagram code contains potentially malicious content", ErrInvalidDiagram)
	}

	return nil
}

// containsMaliciousContent checks for script injection in diagram code
func containsMaliciousContent(code string) bool {
	maliciousPatterns := []string{
		"<script",
		"javascript:",
		"onclick=",
		"onerror=",
		"onload=",
		"eval(",
		"settimeout(",
		"setinterval(",
	}

	codeLower := strings.ToLower(code)
	for _, pattern := range maliciousPatterns {
		if strings.Contains(codeLower, pattern) {
			return true
		}
	}

	return false
}

func createFallbackText(code string) string {
	var b strings.Builder
	b.WriteString("Architecture diagram (text representation):\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("Paste the source into any Mermaid renderer to view it.")
	return b.String()
}
