package engine

import (
	"github.com/sells-group/feasibility-cli/internal/model"
)

// ProjectSchedule builds the year 0..N cash flow schedule from a normalized
// input. Production and price are held flat across the horizon; the
// market growth rate collected upstream is deliberately not applied.
//
// Year 0 carries the full capital outlay and no operating activity. The
// terminal year additionally recovers working capital, entering the same
// discounting as the rest of that year's flow.
func ProjectSchedule(in model.FinancialInput, tech model.TechnicalInput) model.Schedule {
	years := in.ProjectLifeYears
	if years < 1 {
		years = 1
	}

	schedule := make(model.Schedule, 0, years+1)
	schedule = append(schedule, model.CashFlowYear{
		Year:        0,
		NetCashFlow: -in.TotalInvestment(),
	})

	annualUnits := in.MonthlyCapacity * 12
	revenue := in.UnitPrice * annualUnits

	// Per-unit material spend: feedstock scaled by the technical
	// requirement, plus adhesive, chemicals and energy.
	perUnitMaterial := in.FeedstockCostPerTon*tech.FeedstockTonsPerUnit +
		in.AdhesiveCost + in.ChemicalsCost + in.EnergyCostPerUnit
	rawMaterial := perUnitMaterial * annualUnits

	fixedMonthly := in.LaborMonthly + in.MaintenanceMonthly +
		in.UtilitiesMonthly + in.AdministrativeMonthly
	operating := fixedMonthly*12 + rawMaterial

	depreciation := in.DepreciableBase() / float64(years)

	for year := 1; year <= years; year++ {
		ebt := revenue - operating - depreciation

		tax := 0.0
		if ebt > 0 {
			tax = ebt * in.TaxRate
		}

		// Indirect method: depreciation added back after tax.
		operatingCF := ebt - tax + depreciation

		net := operatingCF
		if year == years {
			net += in.WorkingCapital
		}

		schedule = append(schedule, model.CashFlowYear{
			Year:           year,
			Revenue:        revenue,
			OperatingCost:  operating,
			Depreciation:   depreciation,
			EBT:            ebt,
			Tax:            tax,
			NetOperatingCF: operatingCF,
			NetCashFlow:    net,
		})
	}

	return schedule
}
