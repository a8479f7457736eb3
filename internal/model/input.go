package model

// FinancialInput is the fully-populated parameter set produced by
// normalization. All monetary fields are non-negative; rates are fractions
// (0.10 = 10%).
type FinancialInput struct {
	// Capital costs.
	LandCost               float64 `json:"land_cost"`
	BuildingConstruction   float64 `json:"building_construction"`
	MachineryEquipment     float64 `json:"machinery_equipment"`
	InstallationCost       float64 `json:"installation_cost"`
	PreOperationalExpenses float64 `json:"pre_operational_expenses"`
	WorkingCapital         float64 `json:"working_capital"`

	// Raw-material unit costs.
	FeedstockCostPerTon float64 `json:"feedstock_cost_per_ton"`
	AdhesiveCost        float64 `json:"adhesive_cost"`
	ChemicalsCost       float64 `json:"chemicals_cost"`
	EnergyCostPerUnit   float64 `json:"energy_cost_per_unit"`

	// Monthly operating costs.
	LaborMonthly          float64 `json:"labor_cost_monthly"`
	MaintenanceMonthly    float64 `json:"maintenance_cost_monthly"`
	UtilitiesMonthly      float64 `json:"utilities_cost_monthly"`
	AdministrativeMonthly float64 `json:"administrative_cost_monthly"`

	// Revenue drivers.
	UnitPrice       float64 `json:"unit_price"`
	MonthlyCapacity float64 `json:"production_capacity_monthly"`

	// Financial parameters.
	ProjectLifeYears int     `json:"project_life_years"`
	DiscountRate     float64 `json:"discount_rate"`
	TaxRate          float64 `json:"tax_rate"`
}

// TotalInvestment sums the capital cost fields. This value seeds the
// year-0 cash flow.
func (in FinancialInput) TotalInvestment() float64 {
	return in.LandCost +
		in.BuildingConstruction +
		in.MachineryEquipment +
		in.InstallationCost +
		in.PreOperationalExpenses +
		in.WorkingCapital
}

// DepreciableBase is the straight-line depreciation base: constructed and
// installed assets. Land does not depreciate; pre-operational expenses and
// working capital are not assets.
func (in FinancialInput) DepreciableBase() float64 {
	return in.BuildingConstruction + in.MachineryEquipment + in.InstallationCost
}

// WarningKind classifies a normalization warning.
type WarningKind string

const (
	WarningCoerced         WarningKind = "coerced"          // non-numeric value collapsed to 0
	WarningImplausibleRate WarningKind = "implausible_rate" // rate outside [0, 1)
	WarningDerivedCapacity WarningKind = "derived_capacity" // monthly capacity derived from technical data
)

// Warning is an advisory condition recorded during normalization. Warnings
// never block computation; they ride along in the result metadata.
type Warning struct {
	Field   string      `json:"field"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
