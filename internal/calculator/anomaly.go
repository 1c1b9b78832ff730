package calculator

import "FlipSentinel/internal/model"

const (
	// MinAnomalySamples is the history needed before anomalies are judged.
	MinAnomalySamples = 3
	SpikeFactor       = 1.5
	CrashFactor       = 0.5
)

// DetectAnomalies compares the current prices with the trailing average of
// the recent samples, excluding the most recent one. Insufficient history
// is reported as stable.
func DetectAnomalies(currentHigh, currentLow int64, recentHighs, recentLows []float64) model.AnomalyReport {
	if len(recentHighs) < MinAnomalySamples || len(recentLows) < MinAnomalySamples {
		return model.AnomalyReport{IsStable: true}
	}
	avgHigh := Mean(recentHighs[1:])
	avgLow := Mean(recentLows[1:])

	r := model.AnomalyReport{
		HasSpike: float64(currentHigh) > avgHigh*SpikeFactor,
		HasCrash: float64(currentLow) < avgLow*CrashFactor,
	}
	r.IsStable = !r.HasSpike && !r.HasCrash
	return r
}
