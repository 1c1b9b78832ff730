package model

import "time"

// UnboundedQuantity is the finite stand-in for "no limit" used wherever a
// limit takes part in min() arithmetic.
const UnboundedQuantity int64 = 1 << 40

// PriceSample is a point-in-time observation of one item's sell (High) and
// buy (Low) price. Either side may be missing.
type PriceSample struct {
	ItemID    int
	Timestamp time.Time
	High      *int64
	Low       *int64
}

// HighPrice returns the sell side and whether it was observed.
func (p PriceSample) HighPrice() (int64, bool) {
	if p.High == nil {
		return 0, false
	}
	return *p.High, true
}

// LowPrice returns the buy side and whether it was observed.
func (p PriceSample) LowPrice() (int64, bool) {
	if p.Low == nil {
		return 0, false
	}
	return *p.Low, true
}

// Price is a helper for building optional price fields.
func Price(v int64) *int64 { return &v }

// PositionLimit is the maximum quantity of one item that may be bought per
// trading cycle. The zero value is Unlimited.
type PositionLimit struct {
	units   int64
	limited bool
}

// Limited returns a finite position limit of n units.
func Limited(n int64) PositionLimit {
	return PositionLimit{units: n, limited: true}
}

// Unlimited returns a position limit with no cap.
func Unlimited() PositionLimit { return PositionLimit{} }

// PositionLimitFromRaw decodes the exchange encoding where 0 (or any
// non-positive value) means "no limit".
func PositionLimitFromRaw(raw int64) PositionLimit {
	if raw <= 0 {
		return Unlimited()
	}
	return Limited(raw)
}

// IsUnlimited reports whether the item has no position limit.
func (l PositionLimit) IsUnlimited() bool { return !l.limited }

// Cap resolves the limit to a finite quantity.
func (l PositionLimit) Cap() int64 {
	if !l.limited {
		return UnboundedQuantity
	}
	return l.units
}

// Raw re-encodes the limit using the exchange's 0 = unlimited convention.
func (l PositionLimit) Raw() int64 {
	if !l.limited {
		return 0
	}
	return l.units
}

// ItemMeta is static per-item metadata.
type ItemMeta struct {
	ItemID int
	Name   string
	Limit  PositionLimit
}

// VolumeSample is the aggregate trade count over the last 24 hours.
type VolumeSample struct {
	ItemID        int
	TradeCount24h int64
}

// Snapshot is an immutable view of the market handed to the strategy engine.
type Snapshot struct {
	Items   []ItemMeta
	History map[int][]PriceSample // most-recent-first
	Volumes map[int]int64
	TakenAt time.Time
}
