package model

// RiskLevel is an advisory label derived from volatility.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// Filters are the caller-tunable knobs of an evaluation run.
type Filters struct {
	MinVolume       int64   `yaml:"min_volume" validate:"min=0"`
	MaxVolatility   float64 `yaml:"max_volatility" validate:"min=0"`
	IncludeSpikes   bool    `yaml:"include_spikes"`
	IncludeHighRisk bool    `yaml:"include_high_risk"`
}

// AnomalyReport flags price points far from their trailing baseline.
type AnomalyReport struct {
	IsStable bool
	HasSpike bool
	HasCrash bool
}

// Candidate is a fully scored trading opportunity for one item.
type Candidate struct {
	ItemID int
	Name   string
	Limit  PositionLimit

	CurrentHigh        int64
	CurrentLow         int64
	AvgPrice           float64
	Margin             int64
	MarginPercent      float64
	TaxPerUnit         int64
	TaxedProfitPerUnit int64
	ROI                float64

	Volatility float64
	Risk       RiskLevel
	AnomalyReport

	Volume         int64
	Quantity       int64
	TotalCost      int64
	TotalProfit    int64
	ProfitAfterTax int64

	CompositeScore float64
}

// Portfolio is the greedy selection of candidates under one budget.
type Portfolio struct {
	Budget                   int64
	Selections               []Candidate
	TotalCost                int64
	TotalProfitAfterTax      int64
	TotalROI                 float64
	BudgetUtilizationPercent float64
}

// Analysis bundles one evaluation run.
type Analysis struct {
	Budget        int64
	Opportunities []Candidate
	Portfolio     *Portfolio
}
