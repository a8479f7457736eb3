package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/feasibility-cli/internal/engine"
	"github.com/sells-group/feasibility-cli/internal/model"
	"github.com/sells-group/feasibility-cli/internal/store"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return newServeMux(st, engine.New())
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServe_Health(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_CreateProject(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{"name": "MDF Factory"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var p model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "MDF Factory", p.Name)
}

func TestServe_CreateProject_MissingName(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_GetProject_NotFound(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/projects/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ProjectLifecycle(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{"name": "lifecycle"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	update := map[string]any{
		"financial_data": map[string]any{
			"land_cost":                   2000000,
			"building_construction":       3000000,
			"machinery_equipment":         4000000,
			"installation_cost":           500000,
			"pre_operational_expenses":    300000,
			"working_capital":             200000,
			"unit_price":   800,
			"production_capacity_monthly": 1000,
			"labor_cost_monthly":          150000,
		},
		"technical_data": map[string]any{"daily_production_capacity": 40},
		"market_data":    map[string]any{"competition_level": "medium"},
	}
	rec = doJSON(t, mux, http.MethodPut, "/api/projects/"+p.ID, update)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.IsCompleted)

	rec = doJSON(t, mux, http.MethodPost, "/api/projects/"+p.ID+"/compute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.FeasibilityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 10000000.0, result.TotalInvestment)
	assert.True(t, result.IsFeasible)

	// The computed result is persisted on the project.
	rec = doJSON(t, mux, http.MethodGet, "/api/projects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.NotNil(t, fetched.Result)
	assert.True(t, fetched.Result.IsFeasible)

	rec = doJSON(t, mux, http.MethodDelete, "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ComputeProject_NoFinancialData(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{"name": "empty"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	rec = doJSON(t, mux, http.MethodPost, "/api/projects/"+p.ID+"/compute", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_ListProjects(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{"name": "alpha"})
	doJSON(t, mux, http.MethodPost, "/api/projects", map[string]string{"name": "beta"})

	rec = doJSON(t, mux, http.MethodGet, "/api/projects?name=alp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "alpha", projects[0].Name)

	rec = doJSON(t, mux, http.MethodGet, "/api/projects?completed=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_AdHocCompute(t *testing.T) {
	mux := newTestMux(t)

	body := map[string]any{
		"financial_data": map[string]any{
			"machinery_equipment":         1000000,
			"unit_price":   500,
			"production_capacity_monthly": 200,
		},
	}
	rec := doJSON(t, mux, http.MethodPost, "/api/compute", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.FeasibilityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1000000.0, result.TotalInvestment)
}

func TestServe_AdHocCompute_InvalidInput(t *testing.T) {
	mux := newTestMux(t)

	body := map[string]any{
		"financial_data": map[string]any{"land_cost": -5},
	}
	rec := doJSON(t, mux, http.MethodPost, "/api/compute", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServe_AdHocCompute_MissingFinancialData(t *testing.T) {
	mux := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/compute", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
