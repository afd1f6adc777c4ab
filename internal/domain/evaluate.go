package domain

import "slices"

// Evaluate runs a complete flow test: validate, compute outlet flows,
// aggregate, extrapolate to the target residual, classify, build the supply
// curve, and measure hydrant distances. Any validation error stops the run and
// the result carries only diagnostics. Evaluate is a pure function of its
// arguments and is safe for concurrent use.
func Evaluate(in FlowTestInput, p Params) FlowTestResult {
	v := ValidateInput(in, p)
	if len(v.Errors) > 0 {
		return rejected(v, p)
	}

	outletFlows := make([]OutletFlowResult, 0, len(in.Outlets))
	for i, o := range in.Outlets {
		q, err := OutletFlow(o, p)
		if err != nil {
			v.errorf("outlet %d: %s", i+1, err)
			return rejected(v, p)
		}
		outletFlows = append(outletFlows, OutletFlowResult{
			Outlet:           i + 1,
			ID:               o.ID,
			DiameterInches:   o.DiameterInches,
			PitotPressurePsi: o.PitotPressurePsi,
			Coefficient:      p.Coefficient(o),
			FlowGPM:          RoundGPM(q),
		})
	}

	total, err := TotalFlow(in.Outlets, p)
	if err != nil {
		v.errorf("%s", err)
		return rejected(v, p)
	}
	v.Warnings = append(v.Warnings, ValidateTotalFlow(total, p)...)

	target := in.Target(p)
	available, err := AvailableFireFlow(total, in.StaticPressurePsi, in.ResidualPressurePsi, target)
	if err != nil {
		v.errorf("%s", err)
		return rejected(v, p)
	}
	class := p.Classify(available)

	curve := slices.Collect(SupplyCurve(total, in.StaticPressurePsi, in.ResidualPressurePsi, p.CurveStepPsi))
	if curve == nil {
		curve = []CurvePoint{}
	}

	return FlowTestResult{
		OutletFlows:       outletFlows,
		TotalFlowGPM:      round2(total),
		AvailableFlowGPM:  round2(available),
		TargetResidualPsi: target,
		PressureDropPsi:   in.StaticPressurePsi - in.ResidualPressurePsi,
		NFPAClass:         class.Class,
		Color:             class.Color,
		Description:       class.Description,
		SupplyCurve:       curve,
		Distances:         flowDistances(in.TestLocation, in.FlowLocations),
		Warnings:          nonNil(v.Warnings),
		Errors:            []string{},
		QualityScore:      QualityScore(len(v.Warnings), 0, p),
	}
}

func rejected(v Violations, p Params) FlowTestResult {
	return FlowTestResult{
		Warnings:     nonNil(v.Warnings),
		Errors:       v.Errors,
		QualityScore: QualityScore(len(v.Warnings), len(v.Errors), p),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
