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

// Package health reports liveness of the planner and its collaborators
package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/arch-planner/internal/catalog"
)

// Status is the state of one dependency or of the whole service
type Status string

// Status values, least to most severe
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds one round of checks
const DefaultTimeout = 5 * time.Second

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckResult is what a Checker reports about one dependency
type CheckResult struct {
	Status    Status                 `json:"status"`
	Latency   time.Duration          `json:"latency"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Response is the body served by the health endpoint
type Response struct {
	Status       Status                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Environment  string                 `json:"environment"`
	Uptime       string                 `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies"`
	Metadata     map[string]interface{} `json:"metadata"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Checker inspects one dependency
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) CheckResult

// Check calls f
func (f CheckerFunc) Check(ctx context.Context) CheckResult {
	return f(ctx)
}

// Manager runs the registered checkers concurrently and reports the most
// severe status among them.
type Manager struct {
	service string
	version string
	started time.Time
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewManager(service, version string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		service:  service,
		version:  version,
		started:  time.Now(),
		timeout:  DefaultTimeout,
		logger:   logger,
		checkers: make(map[string]Checker),
	}
}

// SetTimeout changes the bound on one round of checks
func (m *Manager) SetTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
}

// AddChecker registers checker under name, replacing any previous one
func (m *Manager) AddChecker(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = checker
}

// Check runs every checker once. A service with no checkers is healthy.
func (m *Manager) Check(ctx context.Context) Response {
	m.mu.RLock()
	checkers := make(map[string]Checker, len(m.checkers))
	for name, c := range m.checkers {
		checkers[name] = c
	}
	timeout := m.timeout
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			start := time.Now()
			result := checker.Check(ctx)
			result.Latency = time.Since(start)
			result.Timestamp = time.Now().UTC()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	overall := StatusHealthy
	for name, result := range results {
		if result.Status.severity() > overall.severity() {
			overall = result.Status
		}
		if result.Status != StatusHealthy {
			m.logger.Warn("Dependency not healthy",
				zap.String("dependency", name),
				zap.String("status", string(result.Status)),
				zap.String("error", result.Error))
		}
	}

	return Response{
		Status:       overall,
		Service:      m.service,
		Version:      m.version,
		Environment:  environment(),
		Uptime:       time.Since(m.started).Round(time.Second).String(),
		Dependencies: results,
		Metadata:     runtimeMetadata(),
		Timestamp:    time.Now().UTC(),
	}
}

// Handler serves the aggregated health as JSON. Only unhealthy maps to 503,
// so a degraded planner keeps receiving traffic.
func (m *Manager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := m.Check(c.Request.Context())
		code := http.StatusOK
		if result.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, result)
	}
}

func runtimeMetadata() map[string]interface{} {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return map[string]interface{}{
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"hostname":   hostname,
		"pid":        os.Getpid(),
	}
}

func environment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "unknown"
}

// CatalogChecker reports the loaded catalog. An empty catalog cannot produce
// a recommendation and is unhealthy.
func CatalogChecker(cat *catalog.Catalog) Checker {
	return CheckerFunc(func(context.Context) CheckResult {
		if cat == nil || cat.Len() == 0 {
			return CheckResult{Status: StatusUnhealthy, Error: "service catalog is empty"}
		}
		return CheckResult{
			Status: StatusHealthy,
			Metadata: map[string]interface{}{
				"version":           cat.Version(),
				"region":            cat.Region(),
				"services":          cat.Len(),
				"application_types": len(cat.ApplicationTypes()),
			},
		}
	})
}

// StoreChecker reports a storage backend through its ping function. Storage
// sits outside the recommendation path, so a failing store only degrades
// the service.
func StoreChecker(kind string, ping func(ctx context.Context) error) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{Status: StatusDegraded, Error: fmt.Sprintf("%s ping failed: %v", kind, err)}
		}
		return CheckResult{Status: StatusHealthy, Metadata: map[string]interface{}{"storage": kind}}
	})
}
