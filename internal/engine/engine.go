package engine

import (
	"go.uber.org/zap"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// Engine computes feasibility for one input record per call. It holds only
// solver settings, so a single Engine is safe for concurrent use.
type Engine struct {
	solver SolverConfig
}

// New returns an Engine with the default solver settings.
func New() *Engine {
	return &Engine{solver: DefaultSolver()}
}

// NewWithSolver returns an Engine with custom solver settings. Zero-valued
// fields fall back to the defaults.
func NewWithSolver(cfg SolverConfig) *Engine {
	def := DefaultSolver()
	if cfg.RateLow == 0 && cfg.RateHigh == 0 {
		cfg.RateLow, cfg.RateHigh = def.RateLow, def.RateHigh
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	return &Engine{solver: cfg}
}

// Compute runs the full pipeline: normalize -> project -> metrics.
// The technical record supplies production capacity and per-unit material
// requirements; market/narrative fields are never interpreted here.
//
// Normalization failure aborts with an InvalidInputError. Undefined
// metrics (IRR, payback, ROI) come back as nil, never fabricated numbers.
func (e *Engine) Compute(raw map[string]any, tech model.TechnicalInput) (*model.FeasibilityResult, error) {
	in, warnings, err := Normalize(raw, tech)
	if err != nil {
		return nil, err
	}
	return e.ComputeNormalized(in, tech, warnings), nil
}

// ComputeNormalized runs projection and metrics on an already-normalized
// input, attaching the given normalization warnings to the result.
func (e *Engine) ComputeNormalized(in model.FinancialInput, tech model.TechnicalInput, warnings []model.Warning) *model.FeasibilityResult {
	schedule := ProjectSchedule(in, tech)

	totalInvestment := in.TotalInvestment()
	npv := NPV(schedule, in.DiscountRate)
	irr := e.solver.IRR(schedule)
	payback := Payback(schedule)
	roi := ROI(schedule, totalInvestment)

	// Feasible only when NPV is positive AND the internal rate of return
	// both exists and clears the cost of capital.
	feasible := npv > 0 && irr != nil && *irr > in.DiscountRate

	result := &model.FeasibilityResult{
		TotalInvestment: totalInvestment,
		NPV:             npv,
		PaybackYears:    payback,
		IsFeasible:      feasible,
		Schedule:        schedule,
		Warnings:        warnings,
	}
	if irr != nil {
		pct := *irr * 100
		result.IRR = &pct
	}
	result.ROI = roi

	// Steady-state annual figures from the first operating year.
	if len(schedule) > 1 {
		y1 := schedule[1]
		result.AnnualRevenue = y1.Revenue
		result.AnnualCosts = y1.OperatingCost
		result.AnnualProfit = y1.Revenue - y1.OperatingCost
	}

	zap.L().Debug("engine: feasibility computed",
		zap.Float64("total_investment", totalInvestment),
		zap.Float64("npv", npv),
		zap.Bool("irr_defined", irr != nil),
		zap.Bool("is_feasible", feasible),
	)

	return result
}
