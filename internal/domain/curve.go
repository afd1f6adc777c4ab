package domain

import "iter"

// SupplyCurve yields the projected flow at residual pressures stepping from 0
// in stepPsi increments while below staticPsi. Only pressures strictly below
// the measured residual are emitted; higher points would be invalid
// extrapolations. Flows are rounded to whole GPM.
//
// The sequence holds no state and may be ranged over any number of times.
// Invalid inputs yield an empty sequence.
func SupplyCurve(totalGPM, staticPsi, residualPsi, stepPsi float64) iter.Seq[CurvePoint] {
	return func(yield func(CurvePoint) bool) {
		if !(stepPsi > 0) || !(staticPsi > residualPsi) || !(totalGPM > 0) {
			return
		}
		for i := 0; ; i++ {
			pressure := float64(i) * stepPsi
			if pressure >= staticPsi || pressure >= residualPsi {
				return
			}
			pt := CurvePoint{
				PressurePsi: pressure,
				FlowGPM:     RoundGPM(extrapolate(totalGPM, staticPsi, residualPsi, pressure)),
			}
			if !yield(pt) {
				return
			}
		}
	}
}
