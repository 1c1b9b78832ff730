package calculator

const (
	// ExpensivePrice separates the two volume tiers.
	ExpensivePrice int64 = 1_000_000
	// MinVolumeExpensive is the hourly-equivalent floor for expensive items.
	MinVolumeExpensive int64 = 50
	// MinVolume24h is the floor for everything else.
	MinVolume24h int64 = 1200
)

// SufficientVolume reports whether an item trades often enough at price.
func SufficientVolume(volume, price int64) bool {
	if price > ExpensivePrice {
		return volume >= MinVolumeExpensive
	}
	return volume >= MinVolume24h
}
