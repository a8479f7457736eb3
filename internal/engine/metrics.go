package engine

import (
	"math"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// SolverConfig bounds the IRR root-finder. The defaults search -99% to
// 1000% and give up after 200 bisections, so a pathological schedule can
// never loop unboundedly.
type SolverConfig struct {
	RateLow       float64 `yaml:"rate_low" mapstructure:"rate_low"`
	RateHigh      float64 `yaml:"rate_high" mapstructure:"rate_high"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// DefaultSolver returns the documented solver settings: bisection over
// [-0.99, 10.0], converged when |NPV| < 0.01 currency units, 200
// iterations max.
func DefaultSolver() SolverConfig {
	return SolverConfig{
		RateLow:       -0.99,
		RateHigh:      10.0,
		Tolerance:     0.01,
		MaxIterations: 200,
	}
}

// NPV discounts the schedule's net cash flows at the given annual rate.
// Year 0 enters undiscounted via the (1+r)^0 term.
func NPV(s model.Schedule, rate float64) float64 {
	npv := 0.0
	for _, y := range s {
		npv += y.NetCashFlow / math.Pow(1+rate, float64(y.Year))
	}
	return npv
}

// IRR solves NPV(r) = 0 by bisection over the configured rate domain.
//
// Returns nil (undefined) when the cash flow sequence never changes sign,
// when the domain does not bracket a root, or when the solver fails to
// converge within the iteration cap. A partially-converged guess is never
// reported.
func (cfg SolverConfig) IRR(s model.Schedule) *float64 {
	if s.SignChanges() == 0 {
		return nil
	}

	lo, hi := cfg.RateLow, cfg.RateHigh
	fLo, fHi := NPV(s, lo), NPV(s, hi)

	if fLo == 0 {
		return &lo
	}
	if fHi == 0 {
		return &hi
	}
	if (fLo > 0) == (fHi > 0) {
		// Zero or an even number of roots inside the domain.
		return nil
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(s, mid)

		if math.Abs(fMid) < cfg.Tolerance {
			return &mid
		}

		if (fMid > 0) == (fLo > 0) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}

	return nil
}

// Payback returns the fractional year at which cumulative undiscounted
// cash flow first turns non-negative, or nil when it never does within the
// horizon. The crossing year is interpolated linearly.
func Payback(s model.Schedule) *float64 {
	cum := 0.0
	for i, y := range s {
		prev := cum
		cum += y.NetCashFlow
		if cum < 0 {
			continue
		}
		if i == 0 || cum == 0 || y.NetCashFlow == 0 {
			p := float64(y.Year)
			return &p
		}
		p := float64(s[i-1].Year) + (-prev)/y.NetCashFlow
		return &p
	}
	return nil
}

// ROI is the total operating-period net cash flow (years 1..N) over the
// initial investment, as a percentage. A zero-investment project is
// degenerate: ROI is undefined, not 0 or infinity.
func ROI(s model.Schedule, totalInvestment float64) *float64 {
	if totalInvestment == 0 {
		return nil
	}
	total := 0.0
	for _, y := range s {
		if y.Year == 0 {
			continue
		}
		total += y.NetCashFlow
	}
	roi := total / totalInvestment * 100
	return &roi
}
