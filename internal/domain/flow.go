package domain

import (
	"fmt"
	"math"
)

const (
	// orificeConstant converts psi and inches to GPM in the orifice equation.
	orificeConstant = 29.83

	// fireFlowExponent is the NFPA 291 exponent (1/1.85) for extrapolating flow.
	fireFlowExponent = 0.54
)

// OutletFlow returns the unrounded flow in GPM through a single outlet.
func OutletFlow(o Outlet, p Params) (float64, error) {
	if !(o.PitotPressurePsi > 0) {
		return 0, ErrInvalidPitotPressure
	}
	if !(o.DiameterInches > 0) {
		return 0, ErrInvalidDiameter
	}
	c := p.Coefficient(o)
	if !(c > 0) {
		return 0, ErrInvalidCoefficient
	}
	d := o.DiameterInches
	return orificeConstant * c * d * d * math.Sqrt(o.PitotPressurePsi), nil
}

// TotalFlow sums the unrounded outlet flows. Outlets are summed in input order,
// which is the canonical order for reproducible totals.
func TotalFlow(outlets []Outlet, p Params) (float64, error) {
	if len(outlets) == 0 {
		return 0, ErrNoOutlets
	}
	var total float64
	for i, o := range outlets {
		q, err := OutletFlow(o, p)
		if err != nil {
			return 0, fmt.Errorf("outlet %d: %w", i+1, err)
		}
		total += q
	}
	return total, nil
}

// AvailableFireFlow extrapolates the measured total flow to the flow available
// at targetPsi residual pressure.
func AvailableFireFlow(totalGPM, staticPsi, residualPsi, targetPsi float64) (float64, error) {
	if !(staticPsi > residualPsi) {
		return 0, ErrStaticNotAboveResidual
	}
	if !(totalGPM > 0) {
		return 0, ErrNonPositiveFlow
	}
	if !(targetPsi < staticPsi) {
		return 0, ErrTargetNotBelowStatic
	}
	return extrapolate(totalGPM, staticPsi, residualPsi, targetPsi), nil
}

// extrapolate applies the fire-flow formula without precondition checks.
func extrapolate(totalGPM, staticPsi, residualPsi, targetPsi float64) float64 {
	hr := staticPsi - targetPsi   // drop to the target residual
	hf := staticPsi - residualPsi // drop observed during the test
	return totalGPM * math.Pow(hr/hf, fireFlowExponent)
}

// RoundGPM rounds a flow to the nearest whole GPM for display.
func RoundGPM(v float64) float64 {
	return math.Round(v)
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
