package model

import "time"

// Project is a saved feasibility study: the raw input records plus the
// computed result, if any. The financial record is kept raw (as submitted)
// so that normalization warnings can be reproduced on every compute.
type Project struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Financial   map[string]any     `json:"financial_data,omitempty"`
	Technical   *TechnicalInput    `json:"technical_data,omitempty"`
	Market      *MarketInput       `json:"market_data,omitempty"`
	Result      *FeasibilityResult `json:"financial_results,omitempty"`
	IsCompleted bool               `json:"is_completed"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ProjectUpdate carries a partial update: only non-nil sections are applied.
type ProjectUpdate struct {
	Financial map[string]any  `json:"financial_data,omitempty"`
	Technical *TechnicalInput `json:"technical_data,omitempty"`
	Market    *MarketInput    `json:"market_data,omitempty"`
}

// TechnicalInput holds production specifications. The engine reads only
// WorkingDaysPerMonth, DailyCapacity and FeedstockTonsPerUnit; the rest is
// descriptive and passed through untouched.
type TechnicalInput struct {
	DailyCapacity        float64          `json:"daily_production_capacity" yaml:"daily_production_capacity"`
	WorkingDaysPerMonth  int              `json:"working_days_per_month" yaml:"working_days_per_month"`
	FeedstockTonsPerUnit float64          `json:"feedstock_requirement_per_unit" yaml:"feedstock_requirement_per_unit"`
	Machinery            []map[string]any `json:"machinery_list,omitempty" yaml:"machinery_list,omitempty"`
	ProcessSteps         []string         `json:"production_process_steps,omitempty" yaml:"production_process_steps,omitempty"`
	QualityStandards     []string         `json:"quality_standards,omitempty" yaml:"quality_standards,omitempty"`
	FactoryAreaSqm       float64          `json:"factory_area_required" yaml:"factory_area_required"`
	ElectricityKW        float64          `json:"electricity_requirement_kw" yaml:"electricity_requirement_kw"`
	WaterDailyM3         float64          `json:"water_requirement_daily" yaml:"water_requirement_daily"`
	LaborHeadcount       int              `json:"labor_requirement" yaml:"labor_requirement"`
}

// MarketInput holds market analysis data. None of it feeds the engine's
// math; growth rate is persisted but revenue projection stays flat.
type MarketInput struct {
	TargetMarketSize     float64          `json:"target_market_size" yaml:"target_market_size"`
	MarketGrowthRate     float64          `json:"market_growth_rate" yaml:"market_growth_rate"`
	Competitors          []map[string]any `json:"competitor_analysis,omitempty" yaml:"competitor_analysis,omitempty"`
	MarketShareTarget    float64          `json:"market_share_target" yaml:"market_share_target"`
	PricingStrategy      string           `json:"pricing_strategy,omitempty" yaml:"pricing_strategy,omitempty"`
	DistributionChannels []string         `json:"distribution_channels,omitempty" yaml:"distribution_channels,omitempty"`
	DemandSeasonality    string           `json:"demand_seasonality,omitempty" yaml:"demand_seasonality,omitempty"`
	CompetitionLevel     string           `json:"competition_level,omitempty" yaml:"competition_level,omitempty"`
	MarketBarriers       []string         `json:"market_barriers,omitempty" yaml:"market_barriers,omitempty"`
}
