package model

// CashFlowYear is one row of the projection, immutable once produced.
// NetCashFlow includes the capital outlay at year 0 and working-capital
// recovery at the terminal year; intermediate years equal NetOperatingCF.
type CashFlowYear struct {
	Year           int     `json:"year"`
	Revenue        float64 `json:"revenue"`
	OperatingCost  float64 `json:"operating_cost"`
	Depreciation   float64 `json:"depreciation"`
	EBT            float64 `json:"earnings_before_tax"`
	Tax            float64 `json:"tax"`
	NetOperatingCF float64 `json:"net_operating_cash_flow"`
	NetCashFlow    float64 `json:"net_cash_flow"`
}

// Schedule is the ordered year 0..N cash-flow sequence.
type Schedule []CashFlowYear

// SignChanges counts sign transitions in the net cash flow sequence,
// ignoring zero entries. IRR is only defined when at least one exists.
func (s Schedule) SignChanges() int {
	changes := 0
	prev := 0.0
	for _, y := range s {
		if y.NetCashFlow == 0 {
			continue
		}
		if prev != 0 && (prev > 0) != (y.NetCashFlow > 0) {
			changes++
		}
		prev = y.NetCashFlow
	}
	return changes
}

// FeasibilityResult is the engine's only output entity.
//
// IRR, PaybackYears and ROI are nil when undefined (no sign change, horizon
// never recovered, zero investment). IRR and ROI are percentages.
type FeasibilityResult struct {
	TotalInvestment float64   `json:"total_investment"`
	AnnualRevenue   float64   `json:"annual_revenue"`
	AnnualCosts     float64   `json:"annual_costs"`
	AnnualProfit    float64   `json:"annual_profit"`
	NPV             float64   `json:"npv"`
	IRR             *float64  `json:"irr"`
	PaybackYears    *float64  `json:"payback_period"`
	ROI             *float64  `json:"roi"`
	IsFeasible      bool      `json:"is_feasible"`
	Schedule        Schedule  `json:"schedule,omitempty"`
	Warnings        []Warning `json:"warnings,omitempty"`
}
