// Package engine turns a raw financial/technical input record into a
// year-by-year cash flow schedule and the standard appraisal metrics
// (NPV, IRR, payback, ROI). It is a pure function of its inputs: no I/O,
// no state shared between invocations.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// Raw record field keys, matching the JSON shape submitted by callers.
const (
	FieldLandCost            = "land_cost"
	FieldBuilding            = "building_construction"
	FieldMachinery           = "machinery_equipment"
	FieldInstallation        = "installation_cost"
	FieldPreOperational      = "pre_operational_expenses"
	FieldWorkingCapital      = "working_capital"
	FieldFeedstockCostPerTon = "feedstock_cost_per_ton"
	FieldAdhesiveCost        = "adhesive_cost"
	FieldChemicalsCost       = "chemicals_cost"
	FieldEnergyCostPerUnit   = "energy_cost_per_unit"
	FieldLaborMonthly        = "labor_cost_monthly"
	FieldMaintenanceMonthly  = "maintenance_cost_monthly"
	FieldUtilitiesMonthly    = "utilities_cost_monthly"
	FieldAdminMonthly        = "administrative_cost_monthly"
	FieldUnitPrice           = "unit_price"
	FieldMonthlyCapacity     = "production_capacity_monthly"
	FieldProjectLifeYears    = "project_life_years"
	FieldDiscountRate        = "discount_rate"
	FieldTaxRate             = "tax_rate"
)

// Defaults applied when a parameter is absent from the raw record.
const (
	DefaultProjectLifeYears = 10
	DefaultDiscountRate     = 0.10
	DefaultTaxRate          = 0.15

	defaultWorkingDaysPerMonth = 26
)

// monetaryFields lists every field that must normalize to a non-negative
// number. Order matters only for deterministic error messages.
var monetaryFields = []string{
	FieldLandCost, FieldBuilding, FieldMachinery, FieldInstallation,
	FieldPreOperational, FieldWorkingCapital,
	FieldFeedstockCostPerTon, FieldAdhesiveCost, FieldChemicalsCost, FieldEnergyCostPerUnit,
	FieldLaborMonthly, FieldMaintenanceMonthly, FieldUtilitiesMonthly, FieldAdminMonthly,
	FieldUnitPrice, FieldMonthlyCapacity,
}

// InvalidInputError is the engine's only hard failure: it aborts the whole
// computation and names the offending fields.
type InvalidInputError struct {
	Fields []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("engine: invalid input fields: %s", strings.Join(e.Fields, ", "))
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// Normalize validates and defaults a sparse raw record into a fully
// specified FinancialInput.
//
// Absent cost/revenue fields default to 0; project life, discount rate and
// tax rate default to 10 / 0.10 / 0.15. Non-numeric values collapse to 0
// with a recorded warning rather than failing, mirroring the permissive
// form-entry semantics upstream. Negative monetary values and a
// non-positive project life are hard failures.
//
// When monthly production capacity is absent, it is derived from the
// technical record (daily capacity x working days per month) and flagged.
func Normalize(raw map[string]any, tech model.TechnicalInput) (model.FinancialInput, []model.Warning, error) {
	var warnings []model.Warning
	var invalid []string

	get := func(field string) float64 {
		v, ok := raw[field]
		if !ok || v == nil {
			return 0
		}
		f, ok := coerceFloat(v)
		if !ok {
			warnings = append(warnings, model.Warning{
				Field:   field,
				Kind:    model.WarningCoerced,
				Message: fmt.Sprintf("non-numeric value %q treated as 0", fmt.Sprint(v)),
			})
			return 0
		}
		return f
	}

	values := make(map[string]float64, len(monetaryFields))
	for _, field := range monetaryFields {
		f := get(field)
		if f < 0 {
			invalid = append(invalid, field)
			continue
		}
		values[field] = f
	}

	in := model.FinancialInput{
		LandCost:               values[FieldLandCost],
		BuildingConstruction:   values[FieldBuilding],
		MachineryEquipment:     values[FieldMachinery],
		InstallationCost:       values[FieldInstallation],
		PreOperationalExpenses: values[FieldPreOperational],
		WorkingCapital:         values[FieldWorkingCapital],
		FeedstockCostPerTon:    values[FieldFeedstockCostPerTon],
		AdhesiveCost:           values[FieldAdhesiveCost],
		ChemicalsCost:          values[FieldChemicalsCost],
		EnergyCostPerUnit:      values[FieldEnergyCostPerUnit],
		LaborMonthly:           values[FieldLaborMonthly],
		MaintenanceMonthly:     values[FieldMaintenanceMonthly],
		UtilitiesMonthly:       values[FieldUtilitiesMonthly],
		AdministrativeMonthly:  values[FieldAdminMonthly],
		UnitPrice:              values[FieldUnitPrice],
		MonthlyCapacity:        values[FieldMonthlyCapacity],
	}

	// Financial parameters take documented defaults only when absent;
	// an explicit zero tax rate is a valid input.
	in.DiscountRate = DefaultDiscountRate
	if v, ok := raw[FieldDiscountRate]; ok && v != nil {
		in.DiscountRate = get(FieldDiscountRate)
	}
	in.TaxRate = DefaultTaxRate
	if v, ok := raw[FieldTaxRate]; ok && v != nil {
		in.TaxRate = get(FieldTaxRate)
	}

	in.ProjectLifeYears = DefaultProjectLifeYears
	if v, ok := raw[FieldProjectLifeYears]; ok && v != nil {
		f, numOK := coerceFloat(v)
		switch {
		case !numOK:
			warnings = append(warnings, model.Warning{
				Field:   FieldProjectLifeYears,
				Kind:    model.WarningCoerced,
				Message: fmt.Sprintf("non-numeric value %q, using default %d", fmt.Sprint(v), DefaultProjectLifeYears),
			})
		case f < 1 || f != math.Trunc(f):
			invalid = append(invalid, FieldProjectLifeYears)
		default:
			in.ProjectLifeYears = int(f)
		}
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return model.FinancialInput{}, nil, &InvalidInputError{Fields: invalid}
	}

	for _, rate := range []struct {
		field string
		value float64
	}{
		{FieldDiscountRate, in.DiscountRate},
		{FieldTaxRate, in.TaxRate},
	} {
		if rate.value < 0 || rate.value >= 1 {
			warnings = append(warnings, model.Warning{
				Field:   rate.field,
				Kind:    model.WarningImplausibleRate,
				Message: fmt.Sprintf("rate %g is outside [0, 1); expected a fraction such as 0.10", rate.value),
			})
		}
	}

	// Monthly capacity can also come from the technical record.
	if in.MonthlyCapacity == 0 && tech.DailyCapacity > 0 {
		days := tech.WorkingDaysPerMonth
		if days <= 0 {
			days = defaultWorkingDaysPerMonth
		}
		in.MonthlyCapacity = tech.DailyCapacity * float64(days)
		warnings = append(warnings, model.Warning{
			Field:   FieldMonthlyCapacity,
			Kind:    model.WarningDerivedCapacity,
			Message: fmt.Sprintf("derived from daily capacity %g x %d working days", tech.DailyCapacity, days),
		})
	}

	if len(warnings) > 0 {
		zap.L().Debug("engine: normalization produced warnings",
			zap.Int("count", len(warnings)),
		)
	}

	return in, warnings, nil
}

// coerceFloat converts the value shapes a decoded JSON/YAML record can hold.
// Strings are parsed leniently; anything unparseable reports false.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
