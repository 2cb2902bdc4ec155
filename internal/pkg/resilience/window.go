package resilience

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// Sub-score names shared by the fixed window and shift methods.
const (
	InvulnerabilityRecovery        = "Invulnerability-Recovery"
	AveragePerformanceDemand       = "Average Performance Demand"
	AveragePerformancePeakDemand   = "Average Performance Peak Demand"
	AveragePerformanceMedianDemand = "Average Performance Median Demand"
)

// SubMetrics lists the sub-scores in reporting order.
var SubMetrics = []string{
	InvulnerabilityRecovery,
	AveragePerformanceDemand,
	AveragePerformancePeakDemand,
	AveragePerformanceMedianDemand,
}

// omega weights invulnerability against recovery.
const omega = 0.5

// timeWindow returns the indices of periods whose midpoint lies in [start, end].
// When none does, the single period whose midpoint is nearest start is used.
func timeWindow(periods []timeperiod.TimePeriod, start, end time.Time) []int {
	window := make([]int, 0)
	for i, p := range periods {
		mid := p.Mid()
		if !mid.Before(start) && !mid.After(end) {
			window = append(window, i)
		}
	}
	if len(window) > 0 || len(periods) == 0 {
		return window
	}

	nearest, best := 0, math.Inf(1)
	for i, p := range periods {
		diff := math.Abs(p.Mid().Sub(start).Seconds())
		if diff < best {
			nearest, best = i, diff
		}
	}
	return []int{nearest}
}

// windowDuration is the span in hours from the first period start to the last
// period end of window.
func windowDuration(periods []timeperiod.TimePeriod, window []int) float64 {
	first := periods[window[0]]
	last := periods[window[len(window)-1]]
	return timeperiod.Hours(last.End().Sub(first.Start()))
}

// fixedWindow scores one run over window.
func fixedWindow(m dispatch.Metrics, window []int) Results {
	periods := m.Periods()
	if len(window) == 0 || windowDuration(periods, window) == 0 {
		return neutral()
	}
	return Results{
		InvulnerabilityRecovery:        invulnerabilityRecovery(m, window),
		AveragePerformanceDemand:       averagePerformance(m, window, demandPerformance),
		AveragePerformancePeakDemand:   averagePerformance(m, window, peakDemandPerformance),
		AveragePerformanceMedianDemand: averagePerformanceMedian(m, window),
	}
}

func neutral() Results {
	r := make(Results, len(SubMetrics))
	for _, k := range SubMetrics {
		r[k] = 1
	}
	return r
}

// invulnerabilityRecovery blends the load satisfaction at the window's first
// period with the fraction of demanded energy actually supplied over the window.
func invulnerabilityRecovery(m dispatch.Metrics, window []int) float64 {
	periods := m.Periods()
	invulnerability := m.LoadSatisfactionRatio(window[0])

	var energySupply, energyLoad float64
	for _, i := range window {
		h := periods[i].Duration()
		energySupply += math.Min(m.Supply(i), m.Load(i)) * h
		energyLoad += m.Load(i) * h
	}
	recovery := 1.0
	if energyLoad > 0 {
		recovery = energySupply / energyLoad
	}
	return omega*invulnerability + (1-omega)*recovery
}

type performanceFunc func(m dispatch.Metrics, i int) float64

func performance(supply, denominator float64) float64 {
	if denominator <= 0 {
		return 1
	}
	return math.Min(1, supply/denominator)
}

func demandPerformance(m dispatch.Metrics, i int) float64 {
	return performance(m.Supply(i), m.Load(i))
}

func peakDemandPerformance(m dispatch.Metrics, i int) float64 {
	return performance(m.Supply(i), m.LoadPeak())
}

// averagePerformance is the duration weighted mean of perf over window.
func averagePerformance(m dispatch.Metrics, window []int, perf performanceFunc) float64 {
	periods := m.Periods()
	var total float64
	for _, i := range window {
		total += perf(m, i) * periods[i].Duration()
	}
	return total / windowDuration(periods, window)
}

// averagePerformanceMedian restricts the demand performance to periods with
// load above the run median, falling back to periods at or above the window
// median when the window never exceeds the run median.
func averagePerformanceMedian(m dispatch.Metrics, window []int) float64 {
	periods := m.Periods()
	above := make([]int, 0, len(window))
	for _, i := range window {
		if m.Load(i) > m.LoadMedian() {
			above = append(above, i)
		}
	}
	if len(above) == 0 {
		loads := make(stats.Float64Data, len(window))
		for j, i := range window {
			loads[j] = m.Load(i)
		}
		median, err := loads.Median()
		if err != nil {
			return 1
		}
		for _, i := range window {
			if m.Load(i) >= median {
				above = append(above, i)
			}
		}
	}

	var total, measured float64
	for _, i := range above {
		h := periods[i].Duration()
		total += demandPerformance(m, i) * h
		measured += h
	}
	if measured == 0 {
		return 1
	}
	return total / measured
}
