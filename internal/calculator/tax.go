package calculator

import "math"

const (
	// TaxRate is the share of each sale taken by the exchange.
	TaxRate = 0.02
	// MinTax is charged on every sale, even at zero price.
	MinTax int64 = 1
	// MaxTax caps the tax per unit sale price.
	MaxTax int64 = 5_000_000
)

// Margin returns the raw per-unit spread before tax.
func Margin(high, low int64) int64 {
	return high - low
}

// MarginPercent returns margin relative to the buy price, or 0 when low is 0.
func MarginPercent(margin, low int64) float64 {
	if low == 0 {
		return 0
	}
	return float64(margin) / float64(low) * 100
}

// Tax returns the per-unit transaction tax for a sale at sellPrice.
// Order matters: floor, then the minimum, then the cap.
func Tax(sellPrice int64) int64 {
	tax := int64(math.Floor(float64(sellPrice) * TaxRate))
	tax = max(tax, MinTax)
	tax = min(tax, MaxTax)
	return tax
}

// ProfitAfterTax returns (margin - tax) * quantity, with tax charged once per
// unit at sellPrice.
func ProfitAfterTax(margin, sellPrice, quantity int64) int64 {
	return (margin - Tax(sellPrice)) * quantity
}

// ROI returns profit as a percentage of cost, or 0 when cost is 0.
func ROI(profit, cost int64) float64 {
	if cost == 0 {
		return 0
	}
	return float64(profit) / float64(cost) * 100
}
