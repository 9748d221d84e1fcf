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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/diagram"
	"github.com/your-org/arch-planner/internal/engine"
	"github.com/your-org/arch-planner/internal/feedback"
	"github.com/your-org/arch-planner/internal/resilience"
)

const staticWebsiteBody = `{
	"applicationType": "static-website",
	"traffic": "low",
	"storageGB": 50,
	"databaseNeeded": false,
	"operationalEffort": "low",
	"monthlyBudget": 20
}`

func newTestRouter(t *testing.T, withFeedback bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	cat, err := catalog.Default()
	require.NoError(t, err)

	deps := Dependencies{
		Engine: engine.New(cat, engine.DefaultOptions(), logger),
		Logger: logger,
	}
	if withFeedback {
		store, err := feedback.NewStore(feedback.Config{
			StorageType: feedback.StorageTypeFile,
			FilePath:    filepath.Join(t.TempDir(), "feedback.jsonl"),
		}, logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		deps.Feedback = store
	}

	h, err := NewHandler(deps)
	require.NoError(t, err)
	return NewRouter(h)
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) resilience.ErrorResponse {
	t.Helper()
	var body resilience.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestNewHandler_RequiresEngine(t *testing.T) {
	_, err := NewHandler(Dependencies{})
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodPost, "/api/recommend", staticWebsiteBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	ids := make([]string, len(resp.Architecture))
	for i, s := range resp.Architecture {
		ids[i] = s.ID
		assert.NotEmpty(t, s.Reason)
	}
	assert.Equal(t, []string{"s3", "cloudfront", "cloudwatch", "iam"}, ids)
	assert.Equal(t, "Recommended", resp.Name)
	assert.True(t, resp.WithinBudget)
	assert.Equal(t, 20.0, resp.Budget)
	assert.Contains(t, resp.Message, "fits within your $20.00 budget")
	assert.Len(t, resp.OptionalUpgrades, 2)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, "Essentials-Only", resp.Alternatives[0].Name)
	assert.Len(t, resp.Assumptions, 4)
	assert.NotEmpty(t, resp.ConstraintImpacts)

	var total float64
	for _, s := range resp.Architecture {
		total += s.EstimatedCost
	}
	assert.InDelta(t, resp.TotalCost, total, 0.02)
}

func TestRecommend_OverBudget(t *testing.T) {
	router := newTestRouter(t, false)

	body := strings.Replace(staticWebsiteBody, `"monthlyBudget": 20`, `"monthlyBudget": 1`, 1)
	w := do(router, http.MethodPost, "/api/recommend", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.WithinBudget)
	assert.Contains(t, resp.Message, "exceeds budget by $")
	assert.NotEmpty(t, resp.Architecture, "primary architecture is always present")
	assert.Equal(t, []catalog.Category{catalog.Monitoring}, resp.TrimmedCategories)
	assert.NotNil(t, resp.OptionalUpgrades)
}

func TestRecommend_CaseInsensitiveEnums(t *testing.T) {
	router := newTestRouter(t, false)

	body := `{"applicationType":"Full-Stack","traffic":"HIGH","storageGB":100,"databaseNeeded":true,"operationalEffort":"High","monthlyBudget":500}`
	w := do(router, http.MethodPost, "/api/recommend", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fargate", resp.Architecture[0].ID)
	assert.InDelta(t, 135.06, resp.TotalCost, 0.001)
}

func TestRecommend_WireShape(t *testing.T) {
	router := newTestRouter(t, false)

	body := `{"applicationType":"full-stack","traffic":"high","storageGB":100,"databaseNeeded":true,"operationalEffort":"high","monthlyBudget":500}`
	w := do(router, http.MethodPost, "/api/recommend", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &top))
	for _, key := range []string{"architecture", "totalCost", "budget", "withinBudget", "message", "optionalUpgrades", "alternatives"} {
		assert.Contains(t, top, key)
	}
	assert.NotContains(t, top, "primary")

	var architecture []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["architecture"], &architecture))
	require.NotEmpty(t, architecture)
	for _, svc := range architecture {
		for _, key := range []string{"service", "category", "reason", "estimatedCost"} {
			assert.Contains(t, svc, key)
		}
	}

	var alternatives []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Services    []string `json:"services"`
		TotalCost   *float64 `json:"totalCost"`
	}
	require.NoError(t, json.Unmarshal(top["alternatives"], &alternatives), "alternative services must be plain names")
	require.NotEmpty(t, alternatives)
	for _, alt := range alternatives {
		assert.NotEmpty(t, alt.Name)
		assert.NotEmpty(t, alt.Description)
		assert.NotEmpty(t, alt.Services)
		assert.NotNil(t, alt.TotalCost)
	}
	assert.Equal(t, "AWS Lambda", alternatives[0].Services[0])
}

func TestRecommend_InvalidRequests(t *testing.T) {
	router := newTestRouter(t, false)

	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"empty body", "", "BAD_REQUEST", ""},
		{"malformed json", `{"applicationType":`, "BAD_REQUEST", ""},
		{"missing traffic", `{"applicationType":"static-website","operationalEffort":"low","monthlyBudget":20}`, "VALIDATION_FAILED", "traffic"},
		{"zero budget", `{"applicationType":"static-website","traffic":"low","operationalEffort":"low","monthlyBudget":0}`, "VALIDATION_FAILED", "monthlyBudget"},
		{"negative storage", `{"applicationType":"static-website","traffic":"low","storageGB":-5,"operationalEffort":"low","monthlyBudget":20}`, "VALIDATION_FAILED", "storageGB"},
		{"fractional storage", `{"applicationType":"static-website","traffic":"low","storageGB":1.5,"operationalEffort":"low","monthlyBudget":20}`, "VALIDATION_FAILED", "storageGB"},
		{"budget as string", `{"applicationType":"static-website","traffic":"low","operationalEffort":"low","monthlyBudget":"20"}`, "VALIDATION_FAILED", "monthlyBudget"},
		{"unknown traffic", `{"applicationType":"static-website","traffic":"extreme","operationalEffort":"low","monthlyBudget":20}`, "VALIDATION_FAILED", "traffic"},
		{"unknown application type", `{"applicationType":"mainframe","traffic":"low","operationalEffort":"low","monthlyBudget":20}`, "VALIDATION_FAILED", "applicationType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/recommend", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeError(t, w)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Field)
			assert.NotEmpty(t, body.RequestID)
			if tt.field != "" {
				assert.Contains(t, body.Error, "'"+tt.field+"'")
			}
		})
	}
}

func TestListServices(t *testing.T) {
	router := newTestRouter(t, false)
	cat, err := catalog.Default()
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/api/services", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, cat.Len())

	w = do(router, http.MethodGet, "/api/services?category=Security", "")
	require.Equal(t, http.StatusOK, w.Code)
	var security []catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &security))
	require.NotEmpty(t, security)
	for _, e := range security {
		assert.Equal(t, catalog.Security, e.Category)
	}

	w = do(router, http.MethodGet, "/api/services?category=quantum", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "category", decodeError(t, w).Field)
}

func TestGetService(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/services/s3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "Amazon S3", entry.Name)
	assert.Equal(t, catalog.TierHigh, entry.Scalability)

	w = do(router, http.MethodGet, "/api/services/mainframe", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestListUseCases(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/use-cases", "")
	require.Equal(t, http.StatusOK, w.Code)

	var useCases map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &useCases))
	assert.Len(t, useCases, len(engine.ApplicationTypes))
	assert.Equal(t, "Static Website", useCases["static-website"])
	assert.Equal(t, "Full-Stack Web Application", useCases["full-stack"])
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "arch-planner", body["service"])
	assert.Contains(t, body, "version")
}

func TestSubmitFeedback(t *testing.T) {
	router := newTestRouter(t, true)

	w := do(router, http.MethodPost, "/api/feedback", `{"name":"Sam","email":"sam@example.com","message":"Please support IoT","type":"missing-use-case"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Thank you for your feedback!", resp.Message)
	assert.NotEmpty(t, resp.ID)

	w = do(router, http.MethodPost, "/api/feedback", `{"type":"other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message", decodeError(t, w).Field)

	w = do(router, http.MethodPost, "/api/feedback", `{"message":"hi","type":"complaint"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type", decodeError(t, w).Field)

	w = do(router, http.MethodPost, "/api/feedback", `{"message":"hi","type":"other","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", decodeError(t, w).Field)
}

func TestSubmitFeedback_NotConfigured(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodPost, "/api/feedback", `{"message":"hi","type":"other"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, w).Code)

	for _, path := range []string{"/api/feedback", "/api/feedback/stats"} {
		w = do(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestListFeedbackAndStats(t *testing.T) {
	router := newTestRouter(t, true)

	w := do(router, http.MethodGet, "/api/feedback/stats", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats FeedbackStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.Total)
	assert.Len(t, stats.ByType, len(feedback.Types))
	assert.Equal(t, feedback.StorageTypeFile, stats.StorageType)

	for _, body := range []string{
		`{"message":"Please support IoT","type":"missing-use-case"}`,
		`{"message":"Loved the diagrams","type":"other"}`,
		`{"message":"Add a GraphQL option","type":"missing-use-case"}`,
	} {
		require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/feedback", body).Code)
	}

	w = do(router, http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list FeedbackListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
	require.Len(t, list.Feedback, 3)
	for _, f := range list.Feedback {
		assert.NotEmpty(t, f.ID)
		assert.False(t, f.Timestamp.IsZero())
	}

	w = do(router, http.MethodGet, "/api/feedback?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	for _, bad := range []string{"0", "abc", "501"} {
		w = do(router, http.MethodGet, "/api/feedback?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "limit", decodeError(t, w).Field)
	}

	w = do(router, http.MethodGet, "/api/feedback/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByType[feedback.TypeMissingUseCase])
	assert.Equal(t, 1, stats.ByType[feedback.TypeOther])
	assert.Equal(t, 0, stats.ByType[feedback.TypeFeatureRequest])
}

func TestRenderDiagram(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodPost, "/api/diagram", staticWebsiteBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d diagram.Diagram
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Recommended", d.Architecture)
	assert.True(t, strings.HasPrefix(d.Mermaid, "graph LR"))
	assert.Contains(t, d.Mermaid, "svc_cloudwatch")
	assert.True(t, strings.HasPrefix(d.ImageURL, "https://mermaid.ink/img/"))

	w = do(router, http.MethodPost, "/api/diagram?architecture=essentials-only", staticWebsiteBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Essentials-Only", d.Architecture)
	assert.NotContains(t, d.Mermaid, "svc_cloudwatch")

	w = do(router, http.MethodPost, "/api/diagram?architecture=Performance-Optimized", staticWebsiteBody)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/diagram", `{"traffic":"low"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecide(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodPost, "/api/decide", `{"userFacing":true,"instant":true,"storesData":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DecideResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, engine.AppFullStack, resp.ApplicationType)
	assert.Equal(t, "Full-Stack Web Application", resp.Label)
	assert.NotEmpty(t, resp.Reason)

	w = do(router, http.MethodPost, "/api/decide", `{"userFacing":false,"instant":false,"storesData":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, engine.AppEventDriven, resp.ApplicationType)

	w = do(router, http.MethodPost, "/api/decide", `{"userFacing":true,"instant":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "storesData", decodeError(t, w).Field)
}

func TestListQuestions(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/decide/questions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var questions []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	require.Len(t, questions, 3)
	assert.Equal(t, "userFacing", questions[0]["key"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)

	w = do(router, http.MethodGet, "/api/recommend", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
