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

// Package api exposes the recommendation engine and its companions over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/decide"
	"github.com/your-org/arch-planner/internal/diagram"
	"github.com/your-org/arch-planner/internal/engine"
	"github.com/your-org/arch-planner/internal/feedback"
	"github.com/your-org/arch-planner/internal/health"
	"github.com/your-org/arch-planner/internal/resilience"
)

// Feedback listing page size bounds
const (
	defaultFeedbackLimit = 50
	maxFeedbackLimit     = 500
)

// Dependencies are the collaborators a Handler serves. Feedback may be nil,
// in which case every feedback route answers 503.
type Dependencies struct {
	Engine         *engine.Engine
	Feedback       *feedback.Store
	Renderer       *diagram.Renderer
	Health         *health.Manager
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Handler handles HTTP requests for the planner API
type Handler struct {
	engine   *engine.Engine
	feedback *feedback.Store
	renderer *diagram.Renderer
	health   *health.Manager
	errors   *resilience.ErrorHandler
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Engine == nil {
		return nil, errors.New("api handler requires an engine")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer := deps.Renderer
	if renderer == nil {
		var err error
		renderer, err = diagram.NewRenderer(diagram.DefaultRendererConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create diagram renderer: %w", err)
		}
	}

	manager := deps.Health
	if manager == nil {
		manager = health.NewManager("arch-planner", "dev", logger)
		manager.AddChecker("catalog", health.CatalogChecker(deps.Engine.Catalog()))
	}

	useJSONFieldNames()

	return &Handler{
		engine:   deps.Engine,
		feedback: deps.Feedback,
		renderer: renderer,
		health:   manager,
		errors:   resilience.NewErrorHandler(logger),
		timeout:  deps.RequestTimeout,
		logger:   logger,
	}, nil
}

// NewRouter builds a gin engine with the standard middleware and the API routes
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), RequestLogger(h.logger), Recovery(h.errors, h.logger))
	router.NoRoute(func(c *gin.Context) {
		h.errors.Respond(c, resilience.NewNotFoundError("route not found: "+c.Request.URL.Path, nil), "routing request")
	})
	router.NoMethod(func(c *gin.Context) {
		h.errors.Respond(c, resilience.NewMethodNotAllowedError("method not allowed", nil), "routing request")
	})
	router.HandleMethodNotAllowed = true
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers the planner API routes with the Gin router
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/recommend", h.recommend)
		api.GET("/services", h.listServices)
		api.GET("/services/:id", h.getService)
		api.GET("/use-cases", h.listUseCases)
		api.GET("/health", h.health.Handler())
		api.POST("/feedback", h.submitFeedback)
		api.GET("/feedback", h.listFeedback)
		api.GET("/feedback/stats", h.feedbackStats)
		api.POST("/diagram", h.renderDiagram)
		api.GET("/decide/questions", h.listQuestions)
		api.POST("/decide", h.decide)
	}
}

// recommend handles POST /api/recommend
func (h *Handler) recommend(c *gin.Context) {
	rec, ok := h.runRecommendation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewRecommendationResponse(rec))
}

// runRecommendation binds, validates and runs one request. On failure the
// error response has been written and ok is false.
func (h *Handler) runRecommendation(c *gin.Context) (engine.Recommendation, bool) {
	var body RecommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.errors.Respond(c, bindingError(err), "binding recommendation request")
		return engine.Recommendation{}, false
	}

	req, err := engine.ParseRequirements(body.input())
	if err != nil {
		h.errors.Respond(c, domainError(err), "validating recommendation request")
		return engine.Recommendation{}, false
	}

	var rec engine.Recommendation
	err = resilience.WithTimeout(c.Request.Context(), h.timeout, h.logger, func(ctx context.Context) error {
		var recErr error
		rec, recErr = h.engine.Recommend(req)
		return recErr
	})
	if err != nil {
		h.errors.Respond(c, domainError(err), "computing recommendation")
		return engine.Recommendation{}, false
	}

	return rec, true
}

// listServices handles GET /api/services with an optional category filter
func (h *Handler) listServices(c *gin.Context) {
	cat := h.engine.Catalog()

	raw := strings.ToLower(strings.TrimSpace(c.Query("category")))
	if raw == "" {
		c.JSON(http.StatusOK, cat.Entries())
		return
	}

	category := catalog.Category(raw)
	if !category.Valid() {
		h.errors.Respond(c, invalidField("category", fmt.Sprintf("unknown category %q", raw), nil), "listing services")
		return
	}
	c.JSON(http.StatusOK, nonNil(cat.ByCategory(category)))
}

// getService handles GET /api/services/:id
func (h *Handler) getService(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.engine.Catalog().Lookup(id)
	if !ok {
		h.errors.Respond(c, resilience.NewNotFoundError(fmt.Sprintf("service %q not found", id), nil), "getting service")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// listUseCases handles GET /api/use-cases
func (h *Handler) listUseCases(c *gin.Context) {
	useCases := make(map[string]string)
	for _, t := range h.engine.Catalog().ApplicationTypes() {
		useCases[t.ID] = t.Label
	}
	c.JSON(http.StatusOK, useCases)
}

// requireFeedback answers 503 when no feedback store is configured
func (h *Handler) requireFeedback(c *gin.Context, operation string) bool {
	if h.feedback == nil {
		h.errors.Respond(c, resilience.NewServiceUnavailableError("feedback storage is not configured", nil), operation)
		return false
	}
	return true
}

// submitFeedback handles POST /api/feedback
func (h *Handler) submitFeedback(c *gin.Context) {
	if !h.requireFeedback(c, "storing feedback") {
		return
	}

	var body FeedbackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.errors.Respond(c, bindingError(err), "binding feedback")
		return
	}

	record, err := h.feedback.Record(c.Request.Context(), feedback.Submission{
		Name:    body.Name,
		Email:   body.Email,
		Message: body.Message,
		Type:    feedback.Type(body.Type),
	})
	if err != nil {
		h.errors.Respond(c, domainError(err), "storing feedback")
		return
	}

	c.JSON(http.StatusCreated, FeedbackResponse{Message: "Thank you for your feedback!", ID: record.ID})
}

// listFeedback handles GET /api/feedback, newest first
func (h *Handler) listFeedback(c *gin.Context) {
	if !h.requireFeedback(c, "listing feedback") {
		return
	}

	limit := defaultFeedbackLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFeedbackLimit {
			h.errors.Respond(c, invalidField("limit", fmt.Sprintf("limit must be an integer between 1 and %d", maxFeedbackLimit), err), "listing feedback")
			return
		}
		limit = n
	}

	records, err := h.feedback.List(c.Request.Context(), limit)
	if err != nil {
		h.errors.Respond(c, err, "listing feedback")
		return
	}
	c.JSON(http.StatusOK, FeedbackListResponse{Feedback: nonNil(records), Count: len(records)})
}

// feedbackStats handles GET /api/feedback/stats
func (h *Handler) feedbackStats(c *gin.Context) {
	if !h.requireFeedback(c, "summarizing feedback") {
		return
	}

	counts, err := h.feedback.Stats(c.Request.Context())
	if err != nil {
		h.errors.Respond(c, err, "summarizing feedback")
		return
	}

	resp := FeedbackStatsResponse{
		ByType:      make(map[feedback.Type]int, len(feedback.Types)),
		StorageType: h.feedback.StorageType(),
	}
	for _, t := range feedback.Types {
		resp.ByType[t] = 0
	}
	for t, n := range counts {
		resp.ByType[t] = n
		resp.Total += n
	}
	c.JSON(http.StatusOK, resp)
}

// renderDiagram handles POST /api/diagram. The architecture query parameter
// selects an alternative by name; the primary is drawn by default.
func (h *Handler) renderDiagram(c *gin.Context) {
	rec, ok := h.runRecommendation(c)
	if !ok {
		return
	}

	name := c.DefaultQuery("architecture", engine.PrimaryName)
	arch, found := findArchitecture(rec, name)
	if !found {
		h.errors.Respond(c, resilience.NewNotFoundError(fmt.Sprintf("architecture %q is not part of this recommendation", name), nil), "rendering diagram")
		return
	}

	c.JSON(http.StatusOK, h.renderer.RenderWithFallback(arch))
}

func findArchitecture(rec engine.Recommendation, name string) (engine.Architecture, bool) {
	if strings.EqualFold(rec.Primary.Name, name) {
		return rec.Primary, true
	}
	for _, alt := range rec.Alternatives {
		if strings.EqualFold(alt.Name, name) {
			return alt, true
		}
	}
	return engine.Architecture{}, false
}

// listQuestions handles GET /api/decide/questions
func (h *Handler) listQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, decide.Questions)
}

// decide handles POST /api/decide
func (h *Handler) decide(c *gin.Context) {
	var body DecideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.errors.Respond(c, bindingError(err), "binding decide request")
		return
	}

	result := decide.Suggest(decide.Answers{
		UserFacing: *body.UserFacing,
		Instant:    *body.Instant,
		StoresData: *body.StoresData,
	})

	label := result.ApplicationType
	if t, ok := h.engine.Catalog().ApplicationType(result.ApplicationType); ok {
		label = t.Label
	}

	c.JSON(http.StatusOK, DecideResponse{
		ApplicationType: result.ApplicationType,
		Label:           label,
		Reason:          result.Reason,
	})
}
