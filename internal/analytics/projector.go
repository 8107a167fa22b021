package analytics

import "math"

// DaysToMin projects how long until the level reaches minLevel at the given
// rate. It is only defined while the tank is net-consuming. A negative result
// means the tank is already below its floor and is returned as is.
func DaysToMin(level *float64, minLevel float64, rate *float64) (float64, bool) {
	if level == nil || rate == nil || *rate >= 0 {
		return 0, false
	}
	if !finite(*level) || !finite(*rate) {
		return 0, false
	}
	return roundTo((*level-minLevel)/math.Abs(*rate), 1), true
}
