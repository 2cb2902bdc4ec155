package dispatch

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// Record is the dispatched state of a single period. Load and Supply are
// average power in kW over the period.
type Record struct {
	Period timeperiod.TimePeriod
	Load   float64
	Supply float64
}

// Results is the Metrics implementation produced by the simulators in this
// module. Aggregates are calculated once on construction.
type Results struct {
	records    []Record
	periods    []timeperiod.TimePeriod
	loadPeak   float64
	loadMedian float64
	deficitPct float64
}

// NewResults calculates the aggregate status of records.
func NewResults(records []Record) Results {
	periods := make([]timeperiod.TimePeriod, len(records))
	loads := make(stats.Float64Data, len(records))
	var energyLoad, energyDeficit float64
	for i, r := range records {
		periods[i] = r.Period
		loads[i] = r.Load
		energyLoad += r.Load * r.Period.Duration()
		energyDeficit += math.Max(0, r.Load-r.Supply) * r.Period.Duration()
	}

	res := Results{records: records, periods: periods}
	if len(records) == 0 {
		return res
	}
	res.loadPeak, _ = loads.Max()
	res.loadMedian, _ = loads.Median()
	if energyLoad > 0 {
		res.deficitPct = 100 * energyDeficit / energyLoad
	}
	return res
}

// Periods returns the simulated periods in order.
func (r Results) Periods() []timeperiod.TimePeriod { return r.periods }

// Records returns the per-period records in order.
func (r Results) Records() []Record { return r.records }

// Load returns the demand during period i.
func (r Results) Load(i int) float64 { return r.records[i].Load }

// Supply returns the power delivered to load during period i.
func (r Results) Supply(i int) float64 { return r.records[i].Supply }

// Deficit returns the unmet load during period i.
func (r Results) Deficit(i int) float64 {
	return math.Max(0, r.records[i].Load-r.records[i].Supply)
}

// LoadSatisfactionRatio returns min(1, supply/load) for period i, 1 when there
// is no load.
func (r Results) LoadSatisfactionRatio(i int) float64 {
	if r.records[i].Load <= 0 {
		return 1
	}
	return math.Min(1, r.records[i].Supply/r.records[i].Load)
}

// LoadPeak returns the largest period load of the run.
func (r Results) LoadPeak() float64 { return r.loadPeak }

// LoadMedian returns the median period load of the run.
func (r Results) LoadMedian() float64 { return r.loadMedian }

// DeficitPercentage returns unmet energy as a percentage of demanded energy.
func (r Results) DeficitPercentage() float64 { return r.deficitPct }
