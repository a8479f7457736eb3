package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/feasibility-cli/internal/model"
)

func fixtureRaw() map[string]any {
	return map[string]any{
		"land_cost":                2_000_000.0,
		"building_construction":    3_000_000.0,
		"machinery_equipment":      4_000_000.0,
		"installation_cost":        500_000.0,
		"pre_operational_expenses": 300_000.0,
		"working_capital":          200_000.0,

		"feedstock_cost_per_ton": 50.0,
		"adhesive_cost":          25.0,
		"chemicals_cost":         10.0,
		"energy_cost_per_unit":   40.0,

		"labor_cost_monthly":          150_000.0,
		"maintenance_cost_monthly":    50_000.0,
		"utilities_cost_monthly":      60_000.0,
		"administrative_cost_monthly": 40_000.0,

		"unit_price":                  800.0,
		"production_capacity_monthly": 1000.0,

		"project_life_years": 10.0,
		"discount_rate":      0.10,
		"tax_rate":           0.15,
	}
}

func TestCompute_FeasibleProject(t *testing.T) {
	result, err := New().Compute(fixtureRaw(), fixtureTech())
	require.NoError(t, err)

	assert.Equal(t, 10_000_000.0, result.TotalInvestment)
	assert.Equal(t, 9_600_000.0, result.AnnualRevenue)
	assert.Equal(t, 6_000_000.0, result.AnnualCosts)
	assert.Equal(t, 3_600_000.0, result.AnnualProfit)
	require.Len(t, result.Schedule, 11)

	// Net operating CF is 3_172_500 flat, plus 200_000 working capital
	// back at year 10:
	//   NPV = 3_172_500 * a(10y,10%) + 200_000 / 1.1^10 - 10M
	annuity := (1 - math.Pow(1.1, -10)) / 0.10
	wantNPV := 3_172_500*annuity + 200_000/math.Pow(1.1, 10) - 10_000_000
	assert.InDelta(t, wantNPV, result.NPV, 1.0)
	assert.Positive(t, result.NPV)

	require.NotNil(t, result.IRR)
	assert.Greater(t, *result.IRR, 10.0, "IRR reported as a percentage")

	require.NotNil(t, result.PaybackYears)
	// Cumulative deficit after year 3 is 482_500.
	assert.InDelta(t, 3.0+482_500.0/3_172_500.0, *result.PaybackYears, 1e-9)

	require.NotNil(t, result.ROI)
	// (9 * 3_172_500 + 3_372_500) / 10M = 317.25% + recovery.
	assert.InDelta(t, (10*3_172_500.0+200_000.0)/10_000_000.0*100, *result.ROI, 1e-9)

	assert.True(t, result.IsFeasible)
	assert.Empty(t, result.Warnings)
}

func TestCompute_InfeasibleProject(t *testing.T) {
	// 10M in, roughly 0.5M a year out: payback blows past the horizon,
	// NPV < 0 at 10%, verdict false.
	raw := map[string]any{
		"land_cost":                   9_500_000.0,
		"working_capital":             500_000.0,
		"unit_price":                  50.0,
		"production_capacity_monthly": 1000.0,
		"labor_cost_monthly":          8_333.0,
	}
	result, err := New().Compute(raw, model.TechnicalInput{})
	require.NoError(t, err)

	assert.Negative(t, result.NPV)
	assert.Nil(t, result.PaybackYears)
	assert.False(t, result.IsFeasible)
}

func TestCompute_AllOutflowsHasNoIRR(t *testing.T) {
	raw := map[string]any{
		"machinery_equipment": 1_000_000.0,
		"labor_cost_monthly":  10_000.0,
	}
	result, err := New().Compute(raw, model.TechnicalInput{})
	require.NoError(t, err)

	assert.Nil(t, result.IRR)
	assert.Negative(t, result.NPV)
	assert.False(t, result.IsFeasible)

	// Soft conditions stay localized: ROI is still defined here.
	require.NotNil(t, result.ROI)
	assert.Negative(t, *result.ROI)
}

func TestCompute_ZeroInvestmentDegenerate(t *testing.T) {
	raw := map[string]any{
		"unit_price":                  10.0,
		"production_capacity_monthly": 100.0,
	}
	result, err := New().Compute(raw, model.TechnicalInput{})
	require.NoError(t, err)

	assert.Zero(t, result.TotalInvestment)
	assert.Nil(t, result.ROI, "zero-investment ROI must be undefined, not 0")
	assert.Positive(t, result.NPV)
}

func TestCompute_InvalidInputAborts(t *testing.T) {
	raw := fixtureRaw()
	raw["project_life_years"] = -5.0

	result, err := New().Compute(raw, fixtureTech())
	require.Error(t, err)
	assert.Nil(t, result, "no partial result on normalization failure")
	assert.True(t, IsInvalidInput(err))
}

func TestCompute_WarningsRideAlong(t *testing.T) {
	raw := fixtureRaw()
	raw["adhesive_cost"] = "unknown"

	result, err := New().Compute(raw, fixtureTech())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "adhesive_cost", result.Warnings[0].Field)
}

func TestCompute_ConcurrentCallsAreIndependent(t *testing.T) {
	e := New()
	done := make(chan *model.FeasibilityResult, 8)
	for i := 0; i < 8; i++ {
		go func() {
			r, err := e.Compute(fixtureRaw(), fixtureTech())
			assert.NoError(t, err)
			done <- r
		}()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		r := <-done
		assert.Equal(t, first.NPV, r.NPV)
		assert.Equal(t, first.IsFeasible, r.IsFeasible)
	}
}

func TestNewWithSolver_ZeroFieldsFallBack(t *testing.T) {
	e := NewWithSolver(SolverConfig{Tolerance: 0.5})
	assert.Equal(t, 0.5, e.solver.Tolerance)
	assert.Equal(t, DefaultSolver().MaxIterations, e.solver.MaxIterations)
	assert.Equal(t, DefaultSolver().RateLow, e.solver.RateLow)
}
