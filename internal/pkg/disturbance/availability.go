package disturbance

import (
	"github.com/google/uuid"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// Availability maps (period, generator) onto the fraction of the period the
// generator is online.
type Availability struct {
	periods []timeperiod.TimePeriod
	ratios  map[uuid.UUID][]float64
}

// FullAvailability returns a profile with every generator online for every period.
func FullAvailability(periods []timeperiod.TimePeriod) Availability {
	return Availability{periods: periods}
}

// Periods returns the periods the profile covers.
func (a Availability) Periods() []timeperiod.TimePeriod {
	return a.periods
}

// OnlineRatio returns the online ratio of generator pid during period i.
// Generators without an entry are always online.
func (a Availability) OnlineRatio(pid uuid.UUID, i int) float64 {
	ratios, ok := a.ratios[pid]
	if !ok || i < 0 || i >= len(ratios) {
		return 1
	}
	return ratios[i]
}
