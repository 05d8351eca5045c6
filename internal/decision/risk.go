package decision

// RiskAggregator combines weighted risk factors into a single score in [0,1].
//
// The score is not a simple average: a single severe factor must dominate, so
// the max term carries most of the weight while the mean term still reflects
// cumulative minor risk. This prevents many mild discrepancies from diluting
// one critical failure such as an expired ID.
type RiskAggregator struct {
	maxWeight  float64
	meanWeight float64
}

// NewRiskAggregator builds an aggregator using the weights in cfg.
func NewRiskAggregator(cfg PolicyConfig) RiskAggregator {
	return RiskAggregator{maxWeight: cfg.RiskMaxWeight, meanWeight: cfg.RiskMeanWeight}
}

// Aggregate computes max(severities)*maxWeight + mean(severities)*meanWeight,
// clamped to [0,1]. An empty factor list scores 0.
func (r RiskAggregator) Aggregate(factors []RiskFactor) float64 {
	if len(factors) == 0 {
		return 0.0
	}

	var max, sum float64
	for _, f := range factors {
		sev := clamp01(f.Severity)
		if sev > max {
			max = sev
		}
		sum += sev
	}
	mean := sum / float64(len(factors))

	return clamp01(max*r.maxWeight + mean*r.meanWeight)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
