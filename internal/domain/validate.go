package domain

import (
	"fmt"
	"math"
)

// Violations collects validation findings. Errors make the computation
// meaningless; Warnings leave it usable but suspect.
type Violations struct {
	Errors   []string
	Warnings []string
}

func (v *Violations) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Violations) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Target returns the residual pressure the available flow is projected to.
func (in FlowTestInput) Target(p Params) float64 {
	if in.TargetResidualPsi != nil {
		return *in.TargetResidualPsi
	}
	return p.TargetResidualPsi
}

// ValidateInput checks the raw readings of a test. Findings are reported in a
// fixed order so identical input always yields identical diagnostics.
func ValidateInput(in FlowTestInput, p Params) Violations {
	var v Violations

	pressuresOK := validatePressures(&v, in, p)
	validateOutlets(&v, in.Outlets, p)
	validateLocations(&v, in)

	if pressuresOK {
		static, residual := in.StaticPressurePsi, in.ResidualPressurePsi
		if static < p.LowStaticPsi {
			v.warnf("Static pressure (%g PSI) is below %g PSI - check system pressure", static, p.LowStaticPsi)
		}
		if residual < p.LowResidualPsi {
			v.warnf("Residual pressure (%g PSI) is very low - may indicate system issues", residual)
		}
		if static-residual > static*p.MaxPressureDropRatio {
			v.warnf("Pressure loss (%g PSI) is very high - may indicate restriction in system", static-residual)
		}
		if target := in.Target(p); residual < target {
			v.warnf("Test residual pressure (%g PSI) is below target residual pressure (%g PSI)", residual, target)
		}
	}
	return v
}

// validatePressures reports pressure errors and whether the pressures are
// sound enough for the warning checks.
func validatePressures(v *Violations, in FlowTestInput, p Params) bool {
	static, residual := in.StaticPressurePsi, in.ResidualPressurePsi
	ok := true

	if !isPositive(static) {
		v.errorf("static pressure must be a finite number greater than 0")
		ok = false
	}
	if !isPositive(residual) {
		v.errorf("residual pressure must be a finite number greater than 0")
		ok = false
	}
	if ok && residual >= static {
		v.errorf("%s", ErrStaticNotAboveResidual)
		ok = false
	}

	target := in.Target(p)
	switch {
	case !isFinite(target) || target < 0:
		v.errorf("target residual pressure must be a finite number of 0 or more")
		ok = false
	case isPositive(static) && target >= static:
		v.errorf("%s", ErrTargetNotBelowStatic)
		ok = false
	}
	return ok
}

func validateOutlets(v *Violations, outlets []Outlet, p Params) {
	if len(outlets) == 0 {
		v.errorf("%s", ErrNoOutlets)
		return
	}
	for i, o := range outlets {
		n := i + 1
		if !isPositive(o.DiameterInches) {
			v.errorf("outlet %d: %s", n, ErrInvalidDiameter)
		}
		if !isPositive(o.PitotPressurePsi) {
			v.errorf("outlet %d: %s", n, ErrInvalidPitotPressure)
		}
		if o.Coefficient != nil && !isPositive(*o.Coefficient) {
			v.errorf("outlet %d: %s", n, ErrInvalidCoefficient)
			continue
		}
		if c := p.Coefficient(o); c < p.MinCoefficient || c > p.MaxCoefficient {
			v.warnf("outlet %d: coefficient %g is outside typical range (%.2f-%.2f)", n, c, p.MinCoefficient, p.MaxCoefficient)
		}
	}
}

func validateLocations(v *Violations, in FlowTestInput) {
	if in.TestLocation != nil && !validCoordinates(in.TestLocation.Lat, in.TestLocation.Lon) {
		v.errorf("test location (%g, %g) is not a valid coordinate", in.TestLocation.Lat, in.TestLocation.Lon)
	}
	for _, f := range in.FlowLocations {
		if !validCoordinates(f.Lat, f.Lon) {
			v.errorf("flow location %q (%g, %g) is not a valid coordinate", f.ID, f.Lat, f.Lon)
		}
	}
	if in.TestLocation == nil && len(in.FlowLocations) > 0 {
		v.warnf("Flow hydrant locations given without a test hydrant location - distances not computed")
	}
}

// ValidateTotalFlow returns warnings for a total flow outside the expected range.
func ValidateTotalFlow(totalGPM float64, p Params) []string {
	var warnings []string
	if totalGPM < p.LowTotalFlowGPM {
		warnings = append(warnings, fmt.Sprintf("Total flow (%.2f GPM) is very low - check outlet conditions", totalGPM))
	}
	if totalGPM > p.HighTotalFlowGPM {
		warnings = append(warnings, fmt.Sprintf("Total flow (%.2f GPM) is unusually high - verify measurements", totalGPM))
	}
	return warnings
}

// QualityScore rates a test from 0 to 100. Any error scores 0.
func QualityScore(warnings, errors int, p Params) int {
	if errors > 0 {
		return 0
	}
	return max(0, 100-warnings*p.WarningPenalty)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func isPositive(x float64) bool {
	return isFinite(x) && x > 0
}

func validCoordinates(lat, lon float64) bool {
	return isFinite(lat) && isFinite(lon) && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
